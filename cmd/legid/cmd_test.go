package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"legid-backend/models"
	"legid-backend/prompts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	rootFlags.json = false
	checkFlags.file, checkFlags.evidence = "", ""
	promptsFlags.prefix, promptsFlags.force = "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeverityCommand(t *testing.T) {
	out, err := execute(t, "", "severity", "I", "was", "arrested", "last", "night")
	require.NoError(t, err)
	assert.Contains(t, out, "CRITICAL (0.95)")
	assert.Contains(t, out, "Critical: arrested")
}

func TestGradeCommand_JSON(t *testing.T) {
	out, err := execute(t, "Option A: plead guilty.", "grade", "--json")
	require.NoError(t, err)

	var card models.ScoreCard
	require.NoError(t, json.Unmarshal([]byte(out), &card))
	assert.Equal(t, models.RecommendRewrite, card.Recommendation)
	assert.Equal(t, 7, card.HumanTone.Score)
}

func TestVerifyCommand(t *testing.T) {
	t.Run("clean draft passes", func(t *testing.T) {
		out, err := execute(t, "", "verify", "Right now, the biggest risk is the licence suspension.")
		require.NoError(t, err)
		assert.Contains(t, out, "Gate passed: true")
	})

	t.Run("template draft fails", func(t *testing.T) {
		out, err := execute(t, "Quick Take: you will be fine.\nOption A: fight it.", "verify")
		require.ErrorIs(t, err, errGateFailed)
		assert.Contains(t, out, "Banned pattern: 'Quick Take' in line 1")
		assert.Contains(t, out, "Banned pattern: 'Option A/B' in line 2")
	})

	t.Run("evidence file", func(t *testing.T) {
		evidence := filepath.Join(t.TempDir(), "evidence.json")
		require.NoError(t, os.WriteFile(evidence, []byte(`{
			"citation_map": [{"claim": "the breath test must be taken within two hours", "supporting_chunk_ids": ["c1"]}],
			"chunks": [{"chunk_id": "c1", "text": "A breath test must be taken within two hours of driving.", "source": "Criminal Code"}]
		}`), 0o644))

		out, err := execute(t, "", "verify", "--json", "--evidence", evidence,
			"In Ontario, the breath test must be taken within two hours of the stop.")
		require.NoError(t, err)

		var res models.VerificationResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.True(t, res.PassesGate)
		assert.Empty(t, res.CitationViolations)
	})
}

func TestReadText_Empty(t *testing.T) {
	_, err := execute(t, "   ", "severity")
	assert.ErrorContains(t, err, "no input text")
}

func TestPromptsExportAndList(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_TYPE", "local")
	t.Setenv("STORAGE_LOCAL_PATH", dir)
	t.Setenv("PROMPT_PREFIX", "prompts/")

	out, err := execute(t, "", "prompts", "export")
	require.NoError(t, err)
	assert.Equal(t, len(prompts.SourceNames()), strings.Count(out, "wrote"))

	want, err := prompts.DefaultSource(prompts.Writer)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dir, "prompts", "writer.tmpl"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	out, err = execute(t, "", "prompts", "export")
	require.NoError(t, err)
	assert.Equal(t, len(prompts.SourceNames()), strings.Count(out, "skip"))

	out, err = execute(t, "", "prompts", "list", "--prefix", "other/")
	require.NoError(t, err)
	assert.Contains(t, out, "built-in")
	assert.NotContains(t, out, "other/writer.tmpl")
}
