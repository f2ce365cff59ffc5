package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/swapcheck/internal/ir"
	"github.com/roach88/swapcheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Donor    string
	Target   string
	RuleSet  string
	Level    string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [evaluation-id]",
		Short: "Show recorded evaluations",
		Long: `List evaluations recorded with "swapcheck evaluate --record", oldest
first, or show one evaluation in full.

Examples:
  swapcheck history --donor EJ205
  swapcheck history --level NotRecommended --limit 10
  swapcheck history 01930c5e-7d6b-7c3e-9a4f-2b8d1e6f0a11`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&opts.Donor, "donor", "", "only evaluations of this donor code")
	cmd.Flags().StringVar(&opts.Target, "target", "", "only evaluations against this target code")
	cmd.Flags().StringVar(&opts.RuleSet, "rule-set", "", "only evaluations made with this rule set hash")
	cmd.Flags().StringVar(&opts.Level, "level", "", "only evaluations that ended at this level")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of evaluations (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db := opts.Database
	if db == "" {
		db = opts.cfg().Database
	}
	if !databaseExists(db) {
		return f.Error(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", db), nil)
	}

	st, err := openStore(f, db)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 1 {
		rec, err := st.GetEvaluation(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return f.Error(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("evaluation %s not found", args[0]), nil)
		}
		if err != nil {
			return f.Error(ExitCommandError, ErrCodeDatabase, "failed to read evaluation", err)
		}
		return f.Success(rec, func(w io.Writer) {
			fmt.Fprintf(w, "Evaluation %s (seq %d, %s)\n", rec.ID, rec.Seq, rec.CreatedAt)
			fmt.Fprintf(w, "Rule set: %s\n", rec.RuleSetHash)
			fmt.Fprintf(w, "Engine version: %s\n\n", rec.EngineVersion)
			fmt.Fprint(w, rec.Result.Explanation)
		})
	}

	filter := store.EvaluationFilter{
		DonorCode:   opts.Donor,
		TargetCode:  opts.Target,
		RuleSetHash: opts.RuleSet,
		Limit:       opts.Limit,
	}
	if opts.Level != "" {
		level, err := ir.ParseLevel(opts.Level)
		if err != nil {
			return f.Error(ExitCommandError, ErrCodeInvalidInput, "invalid --level", err)
		}
		filter.Level = &level
	}

	records, err := st.ListEvaluations(ctx, filter)
	if err != nil {
		return f.Error(ExitCommandError, ErrCodeDatabase, "failed to list evaluations", err)
	}
	if records == nil {
		records = []store.EvaluationRecord{}
	}

	return f.Success(records, func(w io.Writer) {
		if len(records) == 0 {
			fmt.Fprintln(w, "No evaluations recorded.")
			return
		}
		s := newStyles(w)
		t := newTable("ID", "CREATED", "DONOR", "TARGET", "LEVEL", "SCORE", "RULE SET")
		for _, rec := range records {
			target := rec.TargetCode
			if rec.VehicleID != "" {
				target = rec.VehicleID
			}
			t.Row(rec.ID, rec.CreatedAt, rec.DonorCode, target,
				s.level(rec.Result.Level), fmt.Sprintf("%d", rec.Result.Score), shortHash(rec.RuleSetHash))
		}
		fmt.Fprintln(w, t.Render())
	})
}

// shortHash abbreviates a hex digest for display.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
