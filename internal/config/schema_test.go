package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pbmerge/internal/config"
)

func TestCheckDocument_Valid(t *testing.T) {
	t.Parallel()

	issues, err := config.CheckDocument([]byte("output:\n  line_ending: crlf\nanalysis:\n  cache_entries: 5\n"))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCheckDocument_Empty(t *testing.T) {
	t.Parallel()

	issues, err := config.CheckDocument(nil)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCheckDocument_Violations(t *testing.T) {
	t.Parallel()

	issues, err := config.CheckDocument([]byte("output:\n  line_ending: cr\nanalysis:\n  cache_entries: 0\nextra: 1\n"))
	require.ErrorIs(t, err, config.ErrSchema)
	require.Len(t, issues, 3)

	fields := make([]string, 0, len(issues))
	for _, issue := range issues {
		fields = append(fields, issue.Field)
		assert.NotEmpty(t, issue.Description)
	}

	assert.ElementsMatch(t, []string{"output.line_ending", "analysis.cache_entries", "(root)"}, fields)
}

func TestCheckFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := config.CheckFile("/nonexistent/.pbmerge.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestSchema_IsJSON(t *testing.T) {
	t.Parallel()

	assert.Contains(t, string(config.Schema()), `"$schema"`)
}
