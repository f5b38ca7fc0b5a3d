package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/temporal-nexus/nexus-api/internal/analytics"
	"github.com/temporal-nexus/nexus-api/internal/model"
	"github.com/temporal-nexus/nexus-api/internal/store"
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Inspect stored decisions",
	Long:  "Commands for listing, viewing, and summarizing decisions in the store.",
}

// -- decisions list --

var decisionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List decisions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		userID, _ := cmd.Flags().GetString("user")
		decisionType, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.DecisionFilter{
			UserID:       userID,
			DecisionType: model.DecisionType(decisionType),
			Limit:        limit,
		}

		decisions, err := st.ListDecisions(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "decisions list")
		}

		if len(decisions) == 0 {
			fmt.Fprintln(os.Stderr, "No decisions found.")
			return nil
		}

		formatDecisionsList(os.Stdout, decisions)
		return nil
	},
}

// -- decisions show --

var decisionsShowCmd = &cobra.Command{
	Use:   "show <decision-id>",
	Short: "Show full details of a decision, including simulations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		decision, err := st.GetDecision(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "decisions show")
		}
		simulations, err := st.ListSimulationsByDecision(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "decisions show simulations")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"decision":    decision,
			"simulations": simulations,
		})
	},
}

// -- decisions stats --

var decisionsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate decision statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		userID, _ := cmd.Flags().GetString("user")
		since, _ := cmd.Flags().GetDuration("since")

		filter := store.DecisionFilter{UserID: userID}
		if since > 0 {
			filter.CreatedFrom = time.Now().Add(-since)
		}
		filter.Limit = 10000 // high limit for stats

		decisions, err := st.ListDecisions(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "decisions stats")
		}

		formatDecisionStats(os.Stdout, analytics.Summarize(decisions))
		return nil
	},
}

func init() {
	decisionsListCmd.Flags().String("user", "", "filter by user id")
	decisionsListCmd.Flags().String("type", "", "filter by decision type (career_change, investment, ...)")
	decisionsListCmd.Flags().Int("limit", 50, "max number of decisions to display")

	decisionsStatsCmd.Flags().String("user", "", "filter by user id")
	decisionsStatsCmd.Flags().Duration("since", 0, "time window for stats (e.g. 24h, 168h; 0 for all)")

	decisionsCmd.AddCommand(decisionsListCmd)
	decisionsCmd.AddCommand(decisionsShowCmd)
	decisionsCmd.AddCommand(decisionsStatsCmd)
	rootCmd.AddCommand(decisionsCmd)
}

// formatDecisionsList writes a tabular list of decisions to out.
func formatDecisionsList(out io.Writer, decisions []model.Decision) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tUSER\tTYPE\tTITLE\tSTATUS\tCONFIDENCE\tCREATED")
	for _, d := range decisions {
		confidence := "-"
		if d.Confidence != nil {
			confidence = fmt.Sprintf("%.1f", *d.Confidence)
		}
		title := d.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.UserID, d.DecisionType, title, d.Status, confidence,
			d.CreatedAt.Format(time.RFC3339),
		)
	}
	_ = w.Flush()
}

// formatDecisionStats writes an aggregate summary to out.
func formatDecisionStats(out io.Writer, s analytics.Summary) {
	fmt.Fprintf(out, "Total decisions: %d\n", s.Total)

	if len(s.ByType) > 0 {
		fmt.Fprintln(out, "\nBy type:")
		for _, dt := range model.AllDecisionTypes() {
			if n, ok := s.ByType[dt]; ok {
				fmt.Fprintf(out, "  %-22s %d\n", dt, n)
			}
		}
	}
	if len(s.ByStatus) > 0 {
		fmt.Fprintln(out, "\nBy status:")
		for _, status := range []model.DecisionStatus{
			model.DecisionStatusPending, model.DecisionStatusAnalyzing, model.DecisionStatusCompleted,
		} {
			if n, ok := s.ByStatus[status]; ok {
				fmt.Fprintf(out, "  %-22s %d\n", status, n)
			}
		}
	}

	if s.AvgConfidence != nil {
		fmt.Fprintf(out, "\nAverage confidence: %.1f\n", *s.AvgConfidence)
	} else {
		fmt.Fprintln(out, "\nAverage confidence: n/a")
	}
}
