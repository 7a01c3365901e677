package sprint

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/sprintd/internal/provider"
	"github.com/fyrsmithlabs/sprintd/internal/requirements"
)

// stubBackend is a deterministic backend for tests that can be told to
// fail for specific role instances.
type stubBackend struct {
	mu       sync.Mutex
	calls    int
	prompts  []string
	failRole provider.Role
	failIdx  int
	failErr  error
}

func newStubBackend() *stubBackend {
	return &stubBackend{failIdx: -1}
}

func (b *stubBackend) failFor(role provider.Role, index int, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRole = role
	b.failIdx = index
	b.failErr = errors.New(msg)
}

func (b *stubBackend) clearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failErr = nil
}

func (b *stubBackend) Invoke(ctx context.Context, role provider.Role, binding provider.RoleBinding, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	b.calls++
	b.prompts = append(b.prompts, prompt)
	failErr, failRole, failIdx := b.failErr, b.failRole, b.failIdx
	b.mu.Unlock()

	if failErr != nil && role == failRole && (failIdx < 0 || binding.InstanceIndex == failIdx) {
		return "", failErr
	}
	return fmt.Sprintf("narrative for %s[%d]", role, binding.InstanceIndex), nil
}

func (b *stubBackend) promptLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.prompts))
	copy(out, b.prompts)
	return out
}

func mustParse(raw string) []requirements.Requirement {
	reqs, err := requirements.Parse(raw)
	if err != nil {
		panic(err)
	}
	return reqs
}

func defaultBindings() []provider.RoleBinding {
	bindings, err := provider.Resolve(nil)
	if err != nil {
		panic(err)
	}
	return bindings
}
