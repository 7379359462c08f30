package service

import (
	"context"
	"log/slog"
	"strings"

	"legid-backend/llm"
	"legid-backend/prompts"

	"golang.org/x/sync/errgroup"
)

// Comparator verdicts
const (
	WinnerA      = "A"
	WinnerB      = "B"
	WinnerHybrid = "hybrid"
)

// ShadowComparator writes two independent drafts from two prompt variants
// and lets a third call pick the stronger one or merge them.
type ShadowComparator struct {
	writer   *Writer
	llm      llm.Completer
	prompts  *prompts.Library
	variantA string
	variantB string
	settings StageSettings
}

// NewShadowComparator creates a comparator. drafts configures the two draft
// calls, compare the comparator call.
func NewShadowComparator(c llm.Completer, lib *prompts.Library, variantA, variantB string, drafts, compare StageSettings) *ShadowComparator {
	return &ShadowComparator{
		writer:   NewWriter(c, lib, drafts),
		llm:      c,
		prompts:  lib,
		variantA: variantA,
		variantB: variantB,
		settings: compare,
	}
}

// ShadowOutcome is the comparator decision
type ShadowOutcome struct {
	Answer   string                    `json:"answer"`
	Winner   string                    `json:"winner"`
	Reason   string                    `json:"reason"`
	Scores   map[string]map[string]int `json:"scores,omitempty"`
	DraftA   string                    `json:"-"`
	DraftB   string                    `json:"-"`
	Fallback bool                      `json:"fallback"`
}

type comparatorReply struct {
	Scores      map[string]map[string]int `json:"scores"`
	Winner      string                    `json:"winner"`
	Reason      string                    `json:"reason"`
	FinalAnswer string                    `json:"final_answer"`
}

// Compare runs the two drafts concurrently, then the comparator. If the
// comparator reply cannot be used the draft with the higher local score wins.
func (s *ShadowComparator) Compare(ctx context.Context, req DraftRequest) (ShadowOutcome, error) {
	var draftA, draftB string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		draftA, err = s.writer.Write(gctx, req, s.variantA, StageShadowA)
		return err
	})
	g.Go(func() error {
		var err error
		draftB, err = s.writer.Write(gctx, req, s.variantB, StageShadowB)
		return err
	})
	if err := g.Wait(); err != nil {
		return ShadowOutcome{}, err
	}

	p, err := render(s.prompts, StageCompare, prompts.Comparator, prompts.ComparatorData{
		Question: req.Question,
		DraftA:   draftA,
		DraftB:   draftB,
	})
	if err != nil {
		return ShadowOutcome{}, err
	}
	raw, err := callLLM(ctx, s.llm, StageCompare, p, s.settings, true)
	if err != nil {
		return ShadowOutcome{}, err
	}

	out := ShadowOutcome{DraftA: draftA, DraftB: draftB}
	var reply comparatorReply
	if err := llm.DecodeJSON(raw, &reply); err != nil {
		slog.Warn("comparator output not parseable, picking by local score", "stage", StageCompare, "error", err)
		return pickByScore(out), nil
	}

	out.Scores = reply.Scores
	out.Reason = strings.TrimSpace(reply.Reason)
	answer := strings.TrimSpace(reply.FinalAnswer)
	switch strings.ToUpper(strings.TrimSpace(reply.Winner)) {
	case WinnerA:
		out.Winner = WinnerA
		if answer == "" {
			answer = draftA
		}
	case WinnerB:
		out.Winner = WinnerB
		if answer == "" {
			answer = draftB
		}
	case strings.ToUpper(WinnerHybrid):
		out.Winner = WinnerHybrid
	}
	if out.Winner == "" || answer == "" {
		slog.Warn("comparator reply incomplete, picking by local score", "stage", StageCompare, "winner", reply.Winner)
		return pickByScore(out), nil
	}
	out.Answer = answer
	return out, nil
}

func pickByScore(out ShadowOutcome) ShadowOutcome {
	out.Fallback = true
	a, b := Grade(out.DraftA), Grade(out.DraftB)
	if b.Total > a.Total {
		out.Winner, out.Answer = WinnerB, out.DraftB
	} else {
		out.Winner, out.Answer = WinnerA, out.DraftA
	}
	out.Reason = "local score"
	return out
}
