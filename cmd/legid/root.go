package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	json bool
}

var rootCmd = &cobra.Command{
	Use:   "legid",
	Short: "Operator tools for the LEGID answer pipeline",
	Long: "legid runs the answer pipeline from the command line and exposes the\n" +
		"deterministic checks (severity, verification, scoring) on their own.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootFlags.json, "json", false, "print the full result as JSON")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(severityCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// readText returns the joined args, or the named file ("-" is stdin), or
// stdin when neither is given
func readText(cmd *cobra.Command, args []string, file string) (string, error) {
	var text string
	switch {
	case file == "-" || (file == "" && len(args) == 0):
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		text = string(data)
	default:
		text = strings.Join(args, " ")
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no input text")
	}
	return text, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
