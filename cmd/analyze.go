package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/temporal-nexus/nexus-api/internal/model"
	"github.com/temporal-nexus/nexus-api/internal/prompt"
)

var (
	analyzeType       string
	analyzeContext    string
	analyzeShowPrompt bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <decision text>",
	Short: "Run a one-off decision analysis",
	Long:  "Sends the decision description to the model and prints the analysis JSON. Nothing is stored.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dt := model.DecisionType(analyzeType)
		if !model.ValidDecisionType(dt) {
			return eris.Errorf("unknown decision type: %s", analyzeType)
		}

		var additional map[string]any
		if analyzeContext != "" {
			if err := json.Unmarshal([]byte(analyzeContext), &additional); err != nil {
				return eris.Wrap(err, "parse --context JSON")
			}
		}

		userInput := strings.Join(args, " ")

		if analyzeShowPrompt {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), prompt.Analysis(dt, userInput, additional))
			return err
		}

		gw, err := initGateway()
		if err != nil {
			return err
		}

		result, err := gw.Analyze(ctx, dt, userInput, additional)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeType, "type", "career_change", "decision type")
	analyzeCmd.Flags().StringVar(&analyzeContext, "context", "", "additional context as a JSON object")
	analyzeCmd.Flags().BoolVar(&analyzeShowPrompt, "show-prompt", false, "print the full analysis prompt instead of calling the model")
	rootCmd.AddCommand(analyzeCmd)
}
