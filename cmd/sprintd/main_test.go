package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sprintd/internal/sprint"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		configPath = ""
		jsonOutput = false
		followUps = nil
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requirements.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_Summary(t *testing.T) {
	doc := writeDoc(t, "Secure the admin API\nScale ingestion\nRender dashboards")

	out, err := execute(t, "run", doc)
	require.NoError(t, err)

	assert.Contains(t, out, "=== Requirements ===")
	assert.Contains(t, out, "Sprint 1 (accepted: true)")
	assert.Contains(t, out, "=== Interaction Log ===")
}

func TestRun_JSONReport(t *testing.T) {
	doc := writeDoc(t, "Secure the admin API\nScale ingestion")

	out, err := execute(t, "run", doc, "--json")
	require.NoError(t, err)

	report, err := sprint.ParseReport([]byte(out))
	require.NoError(t, err)
	assert.Len(t, report.Requirements, 2)
	require.Len(t, report.Sprints, 1)
	assert.True(t, report.Sprints[0].Accepted)
}

func TestRun_FollowUpSprints(t *testing.T) {
	doc := writeDoc(t, "Secure the admin API")

	out, err := execute(t, "run", doc, "--json",
		"--follow-up", "prioritize security hardening",
		"--follow-up", "add an accessibility audit")
	require.NoError(t, err)

	report, err := sprint.ParseReport([]byte(out))
	require.NoError(t, err)
	require.Len(t, report.Sprints, 3)
	assert.Equal(t, []string{"prioritize security hardening"}, report.Sprints[1].FollowUpInstructions)
	assert.Equal(t, []string{"add an accessibility audit"}, report.Sprints[2].FollowUpInstructions)
}

func TestRun_EmptyDocumentFails(t *testing.T) {
	doc := writeDoc(t, "   \n\n")

	_, err := execute(t, "run", doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no requirements")
}

func TestRun_MissingDocumentFails(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "absent.md"))
	require.Error(t, err)
}
