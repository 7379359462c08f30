package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"legid-backend/models"
	"legid-backend/service"

	"github.com/spf13/cobra"
)

var errGateFailed = errors.New("quality gate failed")

var checkFlags struct {
	file     string
	evidence string
}

var severityCmd = &cobra.Command{
	Use:   "severity [question]",
	Short: "Classify the urgency of a question",
	RunE:  runSeverity,
}

var gradeCmd = &cobra.Command{
	Use:   "grade [draft]",
	Short: "Score a draft answer on the five quality dimensions",
	RunE:  runGrade,
}

var verifyCmd = &cobra.Command{
	Use:   "verify [draft]",
	Short: "Run the quality gate over a draft answer",
	Long: "verify runs the banned pattern, citation and tone checks. With --evidence\n" +
		"it also checks the draft's claims against a JSON file holding\n" +
		"{\"citation_map\": [...], \"chunks\": [...]}. Exits non-zero when the gate fails.",
	RunE: runVerify,
}

func init() {
	for _, c := range []*cobra.Command{severityCmd, gradeCmd, verifyCmd} {
		c.Flags().StringVarP(&checkFlags.file, "file", "f", "", "read the input from a file ('-' for stdin)")
	}
	verifyCmd.Flags().StringVar(&checkFlags.evidence, "evidence", "", "JSON file with citation_map and chunks")
}

func runSeverity(cmd *cobra.Command, args []string) error {
	question, err := readText(cmd, args, checkFlags.file)
	if err != nil {
		return err
	}
	res := service.ClassifySeverity(question)

	out := cmd.OutOrStdout()
	if rootFlags.json {
		return printJSON(out, res)
	}
	fmt.Fprintf(out, "Level:       %s (%.2f)\n", res.Level, res.Confidence)
	fmt.Fprintf(out, "Indicators:  %s\n", strings.Join(res.Indicators, "; "))
	fmt.Fprintf(out, "Tone:        %s\n", res.Rules.Tone)
	fmt.Fprintf(out, "Opening:     %s\n", res.Rules.OpeningStyle)
	return nil
}

func runGrade(cmd *cobra.Command, args []string) error {
	draft, err := readText(cmd, args, checkFlags.file)
	if err != nil {
		return err
	}
	card := service.Grade(draft)

	out := cmd.OutOrStdout()
	if rootFlags.json {
		return printJSON(out, card)
	}
	fmt.Fprintf(out, "Total:  %d/%d (%.1f%%) %s, %s\n", card.Total, card.MaxTotal, card.Percentage, card.Grade, card.Recommendation)
	for _, line := range card.Feedback() {
		fmt.Fprintf(out, "  %s\n", line)
	}
	return nil
}

type evidenceFile struct {
	CitationMap []models.CitationMapping `json:"citation_map"`
	Chunks      []models.EvidenceChunk   `json:"chunks"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	draft, err := readText(cmd, args, checkFlags.file)
	if err != nil {
		return err
	}
	var ev evidenceFile
	if checkFlags.evidence != "" {
		data, err := os.ReadFile(checkFlags.evidence)
		if err != nil {
			return fmt.Errorf("read evidence: %w", err)
		}
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("parse evidence: %w", err)
		}
	}
	res := service.Verify(draft, ev.CitationMap, ev.Chunks)

	out := cmd.OutOrStdout()
	if rootFlags.json {
		if err := printJSON(out, res); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Gate passed: %v\n", res.PassesGate)
		for _, fix := range res.RequiredFixes {
			fmt.Fprintf(out, "  - %s\n", fix)
		}
	}
	if !res.PassesGate {
		return errGateFailed
	}
	return nil
}
