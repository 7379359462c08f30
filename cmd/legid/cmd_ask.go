package main

import (
	"context"
	"fmt"

	"legid-backend/config"
	"legid-backend/models"
	"legid-backend/service"

	"github.com/spf13/cobra"
)

var askFlags struct {
	file         string
	jurisdiction string
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a legal question with the configured backends",
	RunE:  runAsk,
}

func init() {
	f := askCmd.Flags()
	f.StringVarP(&askFlags.file, "file", "f", "", "read the question from a file ('-' for stdin)")
	f.StringVar(&askFlags.jurisdiction, "jurisdiction", "", "jurisdiction hint, e.g. Ontario")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question, err := readText(cmd, args, askFlags.file)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logCloser, err := config.SetupLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	completer, closeLLM, err := config.NewCompleter(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer closeLLM()
	searcher, closeRetriever, err := config.NewRetriever(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRetriever()
	library, err := config.NewPrompts(ctx, cfg)
	if err != nil {
		return err
	}
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}

	opts := []service.PipelineOption{
		service.PipelineWithLLM(completer),
		service.PipelineWithPrompts(library),
		service.PipelineWithPolicy(policy),
	}
	if searcher != nil {
		opts = append(opts, service.PipelineWithRetriever(searcher))
	}

	resp, err := service.NewPipeline(opts...).Run(ctx, question, &models.QuestionContext{
		JurisdictionHint: askFlags.jurisdiction,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootFlags.json {
		return printJSON(out, resp)
	}
	fmt.Fprintln(out, resp.Answer)
	if len(resp.Citations) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, c := range resp.Citations {
			fmt.Fprintf(out, "  [%s] %s (%s)\n", c.ChunkID, c.Source, c.Authority)
		}
	}
	if len(resp.FollowUps) > 0 {
		fmt.Fprintln(out, "\nYou might also ask:")
		for _, s := range resp.FollowUps {
			fmt.Fprintf(out, "  - %s\n", s.Label)
		}
	}
	fmt.Fprintf(out, "\nconfidence %.2f, gate passed: %v, score %d/%d\n",
		resp.Confidence, resp.Metadata.QualityGatePassed, resp.Metadata.ScoreTotal, service.MaxTotal)
	return nil
}
