// Package prompts holds the prompt templates for every LLM-backed stage.
// Defaults are embedded in the binary; any of them can be replaced by a
// file of the same name in object storage.
package prompts

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/template"

	"legid-backend/llm"
	"legid-backend/models"
	"legid-backend/storage"
)

//go:embed templates/*.tmpl
var defaultFS embed.FS

// Template names
const (
	Classifier         = "classifier"
	RetrievalPlan      = "retrieval_plan"
	ReasonerFourLayer  = "reasoner_four_layer"
	ReasonerFiveFilter = "reasoner_five_filter"
	ReasonerSevenLayer = "reasoner_seven_layer"
	Writer             = "writer"
	WriterAlt          = "writer_alt"
	Rewriter           = "rewriter"
	Comparator         = "comparator"

	shared = "shared"
)

var (
	ErrUnknownTemplate = errors.New("unknown prompt template")
	// ErrTemplate marks a template that parsed but failed to execute
	ErrTemplate = errors.New("prompt template failure")
)

// StageNames lists every renderable template
func StageNames() []string {
	return []string{
		Classifier, RetrievalPlan,
		ReasonerFourLayer, ReasonerFiveFilter, ReasonerSevenLayer,
		Writer, WriterAlt, Rewriter, Comparator,
	}
}

// SourceNames lists every template file, including shared fragments
func SourceNames() []string {
	return append(StageNames(), shared)
}

// Prompt is a rendered system + user pair
type Prompt struct {
	System string
	User   string
}

// Messages converts the prompt into chat messages
func (p Prompt) Messages() []llm.Message {
	return []llm.Message{llm.System(p.System), llm.User(p.User)}
}

// ClassifierData feeds the classifier template
type ClassifierData struct {
	Question         string
	JurisdictionHint string
}

// PlanData feeds the retrieval plan template
type PlanData struct {
	Question       string
	Classification models.Classification
}

// ReasonerData feeds the reasoner variants. Evidence is the labelled chunk
// block; MustCover lists the issues the retrieval plan flagged.
type ReasonerData struct {
	Question       string
	Classification models.Classification
	Evidence       string
	MustCover      []string
}

// WriterData feeds both writer variants
type WriterData struct {
	Question       string
	Classification models.Classification
	Reasoning      string
	Rules          models.BehaviorRules
}

// RewriteData feeds the rewriter template
type RewriteData struct {
	Question   string
	Draft      string
	Violations []string
	Rules      models.BehaviorRules
}

// ComparatorData feeds the shadow comparator template
type ComparatorData struct {
	Question string
	DraftA   string
	DraftB   string
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}

// Library is a parsed, immutable set of templates
type Library struct {
	templates map[string]*template.Template
}

// DefaultSource returns the embedded text of a template file
func DefaultSource(name string) ([]byte, error) {
	data, err := defaultFS.ReadFile("templates/" + name + ".tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return data, nil
}

// Default parses the embedded templates only
func Default() *Library {
	lib, err := build(func(name string) ([]byte, error) { return DefaultSource(name) })
	if err != nil {
		panic(err)
	}
	return lib
}

// Load parses the embedded templates, replacing any that exist in store under
// prefix (e.g. "prompts/writer.tmpl"). store may be nil.
func Load(ctx context.Context, store storage.Storage, prefix string) (*Library, error) {
	if store == nil {
		return Default(), nil
	}
	return build(func(name string) ([]byte, error) {
		data, err := storage.ReadAll(ctx, store, prefix+name+".tmpl")
		if errors.Is(err, storage.ErrNotFound) {
			return DefaultSource(name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load prompt %s: %w", name, err)
		}
		slog.Info("using prompt override", "template", name, "key", prefix+name+".tmpl")
		return data, nil
	})
}

func build(source func(name string) ([]byte, error)) (*Library, error) {
	sharedText, err := source(shared)
	if err != nil {
		return nil, err
	}

	lib := &Library{templates: make(map[string]*template.Template)}
	for _, name := range StageNames() {
		text, err := source(name)
		if err != nil {
			return nil, err
		}
		t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(sharedText))
		if err != nil {
			return nil, fmt.Errorf("failed to parse shared prompt fragments: %w", err)
		}
		if _, err := t.Parse(string(text)); err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s: %w", name, err)
		}
		if t.Lookup("system") == nil || t.Lookup("user") == nil {
			return nil, fmt.Errorf("prompt %s must define \"system\" and \"user\"", name)
		}
		lib.templates[name] = t
		if _, err := lib.Render(name, sampleData(name)); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// sampleData is a representative value for each stage, executed once at load
// so a template that references a missing field fails before serving.
func sampleData(name string) interface{} {
	cls := models.DefaultClassification()
	cls.TopicKeywords = []string{"sample"}
	cls.MissingFacts = []string{"sample"}
	rules := models.BehaviorRules{Tone: "calm", OpeningStyle: "sample", Focus: "sample"}
	switch name {
	case Classifier:
		return ClassifierData{Question: "sample", JurisdictionHint: "sample"}
	case RetrievalPlan:
		return PlanData{Question: "sample", Classification: cls}
	case ReasonerFourLayer, ReasonerFiveFilter, ReasonerSevenLayer:
		return ReasonerData{Question: "sample", Classification: cls, Evidence: "sample", MustCover: []string{"sample"}}
	case Writer, WriterAlt:
		return WriterData{Question: "sample", Classification: cls, Reasoning: "{}", Rules: rules}
	case Rewriter:
		return RewriteData{Question: "sample", Draft: "sample", Violations: []string{"sample"}, Rules: rules}
	case Comparator:
		return ComparatorData{Question: "sample", DraftA: "sample", DraftB: "sample"}
	}
	return nil
}

// Names returns the stage templates in the library
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for n := range l.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Render executes the named template
func (l *Library) Render(name string, data interface{}) (Prompt, error) {
	t, ok := l.templates[name]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var sys, usr bytes.Buffer
	if err := t.ExecuteTemplate(&sys, "system", data); err != nil {
		return Prompt{}, fmt.Errorf("%w: %s system prompt: %w", ErrTemplate, name, err)
	}
	if err := t.ExecuteTemplate(&usr, "user", data); err != nil {
		return Prompt{}, fmt.Errorf("%w: %s user prompt: %w", ErrTemplate, name, err)
	}
	return Prompt{
		System: strings.TrimSpace(sys.String()),
		User:   strings.TrimSpace(usr.String()),
	}, nil
}
