package main

import (
	"bytes"
	"errors"
	"fmt"

	"legid-backend/config"
	"legid-backend/prompts"
	"legid-backend/storage"

	"github.com/spf13/cobra"
)

var promptsFlags struct {
	prefix string
	force  bool
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage prompt template overrides in object storage",
}

var promptsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the built-in templates to storage as a starting point for overrides",
	RunE:  runPromptsExport,
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the templates and whether storage overrides them",
	RunE:  runPromptsList,
}

func init() {
	promptsCmd.PersistentFlags().StringVar(&promptsFlags.prefix, "prefix", "", "storage key prefix (default PROMPT_PREFIX)")
	promptsExportCmd.Flags().BoolVar(&promptsFlags.force, "force", false, "overwrite existing overrides")

	promptsCmd.AddCommand(promptsExportCmd)
	promptsCmd.AddCommand(promptsListCmd)
}

func openPromptStore(cmd *cobra.Command) (storage.Storage, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	store, err := storage.NewStorage(cmd.Context(), cfg.StorageConfig())
	if err != nil {
		return nil, "", err
	}
	prefix := promptsFlags.prefix
	if prefix == "" {
		prefix = cfg.PromptPrefix
	}
	return store, prefix, nil
}

func overridden(cmd *cobra.Command, store storage.Storage, key string) (bool, error) {
	rc, err := store.Get(cmd.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	rc.Close()
	return true, nil
}

func runPromptsExport(cmd *cobra.Command, _ []string) error {
	store, prefix, err := openPromptStore(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range prompts.SourceNames() {
		key := prefix + name + ".tmpl"
		exists, err := overridden(cmd, store, key)
		if err != nil {
			return err
		}
		if exists && !promptsFlags.force {
			fmt.Fprintf(out, "skip   %s (exists)\n", key)
			continue
		}
		data, err := prompts.DefaultSource(name)
		if err != nil {
			return err
		}
		if err := store.Put(cmd.Context(), key, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		fmt.Fprintf(out, "wrote  %s\n", key)
	}
	return nil
}

func runPromptsList(cmd *cobra.Command, _ []string) error {
	store, prefix, err := openPromptStore(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range prompts.SourceNames() {
		key := prefix + name + ".tmpl"
		exists, err := overridden(cmd, store, key)
		if err != nil {
			return err
		}
		source := "built-in"
		if exists {
			source = key
		}
		fmt.Fprintf(out, "%-22s %s\n", name, source)
	}
	return nil
}
