package prompts

import (
	"context"
	"strings"
	"testing"

	"legid-backend/models"
	"legid-backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RendersEveryStage(t *testing.T) {
	lib := Default()
	cls := models.DefaultClassification()
	rules := models.BehaviorRules{Tone: "calm", OpeningStyle: "Here's how this generally works...", Focus: "process"}

	data := map[string]interface{}{
		Classifier:         ClassifierData{Question: "Can my landlord evict me?", JurisdictionHint: "Ontario"},
		RetrievalPlan:      PlanData{Question: "q", Classification: cls},
		ReasonerFourLayer:  ReasonerData{Question: "q", Classification: cls, Evidence: "[chunk-1 - RTA] text"},
		ReasonerFiveFilter: ReasonerData{Question: "q", Classification: cls},
		ReasonerSevenLayer: ReasonerData{Question: "q", Classification: cls},
		Writer:             WriterData{Question: "q", Classification: cls, Reasoning: "{}", Rules: rules},
		WriterAlt:          WriterData{Question: "q", Classification: cls, Reasoning: "{}", Rules: rules},
		Rewriter:           RewriteData{Question: "q", Draft: "d", Violations: []string{"Banned pattern: 'Quick Take' in line 1"}, Rules: rules},
		Comparator:         ComparatorData{Question: "q", DraftA: "a", DraftB: "b"},
	}
	require.ElementsMatch(t, StageNames(), lib.Names())

	for name, d := range data {
		p, err := lib.Render(name, d)
		require.NoError(t, err, name)
		assert.NotEmpty(t, p.System, name)
		assert.NotEmpty(t, p.User, name)
		assert.Len(t, p.Messages(), 2)
	}

	p, err := lib.Render(Classifier, data[Classifier])
	require.NoError(t, err)
	assert.Contains(t, p.User, "Caller indicated jurisdiction: Ontario")

	p, err = lib.Render(Rewriter, data[Rewriter])
	require.NoError(t, err)
	assert.Contains(t, p.User, "1. Banned pattern: 'Quick Take' in line 1")
	assert.Contains(t, p.System, "Tone for this situation: calm.")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Default().Render("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestLoad_UsesStorageOverride(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	override := `{{define "system"}}CUSTOM CLASSIFIER{{end}}{{define "user"}}{{.Question}}{{end}}`
	require.NoError(t, store.Put(ctx, "prompts/classifier.tmpl", strings.NewReader(override)))

	lib, err := Load(ctx, store, "prompts/")
	require.NoError(t, err)

	p, err := lib.Render(Classifier, ClassifierData{Question: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM CLASSIFIER", p.System)
	assert.Equal(t, "hello", p.User)

	p, err = lib.Render(Comparator, ComparatorData{Question: "q", DraftA: "a", DraftB: "b"})
	require.NoError(t, err)
	assert.Contains(t, p.System, "five dimensions")
}

func TestLoad_RejectsBrokenOverride(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "prompts/writer.tmpl", strings.NewReader(`{{define "system"}}oops`)))

	_, err = Load(ctx, store, "prompts/")
	assert.Error(t, err)
}

func TestLoad_RejectsOverrideWithUnknownField(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	override := `{{define "system"}}sys{{end}}{{define "user"}}{{.Question}} {{.Jurisdiction}}{{end}}`
	require.NoError(t, store.Put(ctx, "prompts/rewriter.tmpl", strings.NewReader(override)))

	_, err = Load(ctx, store, "prompts/")
	require.ErrorIs(t, err, ErrTemplate)
	assert.Contains(t, err.Error(), "rewriter")
}

func TestRender_ExecutionErrorIsTemplateError(t *testing.T) {
	_, err := Default().Render(Classifier, PlanData{Question: "q"})
	assert.ErrorIs(t, err, ErrTemplate)
}
