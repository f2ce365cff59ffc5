package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/swapcheck/internal/compiler"
	"github.com/roach88/swapcheck/internal/engine"
	"github.com/roach88/swapcheck/internal/ir"
	"github.com/roach88/swapcheck/internal/store"
)

// EvaluateOptions holds flags for the evaluate command.
type EvaluateOptions struct {
	*RootOptions
	SourceOptions
	Vehicle string
	Record  bool
	FailOn  string // level name; exit 1 when the result is at least this severe
}

// EvaluateOutput is the JSON payload of the evaluate command.
type EvaluateOutput struct {
	Donor       ir.EngineProfile       `json:"donor"`
	Target      ir.EngineProfile       `json:"target"`
	Vehicle     *ir.VehicleProfile     `json:"vehicle,omitempty"`
	Result      ir.CompatibilityResult `json:"result"`
	RuleSetHash string                 `json:"rule_set_hash"`
	ResultHash  string                 `json:"result_hash"`
	RecordID    string                 `json:"record_id,omitempty"`
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "evaluate <donor> [target]",
		Short: "Evaluate a donor engine against a target engine or vehicle",
		Long: `Evaluate a donor engine against a target engine, or against a vehicle
with --vehicle.

Engines and vehicles are looked up by code or key in the catalog source,
then in the database (populated by "swapcheck import"). Rules come from
--rules, the configuration, or the database, in that order.

Exit codes:
  0 - Evaluated (and below --fail-on, if given)
  1 - Result level reached --fail-on
  2 - Command error (missing rules, unknown engine, etc.)

Examples:
  swapcheck evaluate EJ205 EJ22E --rules ./rules
  swapcheck evaluate FB25 --vehicle impreza-1997-us --record
  swapcheck evaluate EJ257 EJ18 --fail-on MajorMods --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "rule file or directory")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "engine/vehicle catalog file or directory")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database for catalog fallback and --record")
	cmd.Flags().StringVar(&opts.Vehicle, "vehicle", "", "evaluate against this vehicle instead of a target engine")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "append the evaluation to the database history")
	cmd.Flags().StringVar(&opts.FailOn, "fail-on", "", "exit 1 when the level is at least this severe")

	return cmd
}

func runEvaluate(opts *EvaluateOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case len(args) == 2 && opts.Vehicle != "":
		return f.Error(ExitCommandError, ErrCodeInvalidInput, "give either a target engine or --vehicle, not both", nil)
	case len(args) == 1 && opts.Vehicle == "":
		return f.Error(ExitCommandError, ErrCodeInvalidInput, "a target engine or --vehicle is required", nil)
	}

	var failOn *ir.Level
	if opts.FailOn != "" {
		level, err := ir.ParseLevel(opts.FailOn)
		if err != nil {
			return f.Error(ExitCommandError, ErrCodeInvalidInput, "invalid --fail-on level", err)
		}
		failOn = &level
	}

	src := opts.SourceOptions.resolve(opts.RootOptions)

	var st *store.Store
	if opts.Record || databaseExists(src.Database) {
		var err error
		st, err = openStore(f, src.Database)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	rules, cat, err := loadEvaluationInputs(ctx, f, src, st)
	if err != nil {
		return err
	}

	out := EvaluateOutput{}
	donor, err := lookupEngine(ctx, f, cat, "donor", args[0])
	if err != nil {
		return err
	}
	out.Donor = donor

	eng := engine.New(rules, engine.WithLogger(opts.logger()))

	if opts.Vehicle != "" {
		vehicle, ok, err := cat.vehicle(ctx, opts.Vehicle)
		if err != nil {
			return f.Error(ExitCommandError, ErrCodeDatabase, "failed to look up vehicle", err)
		}
		if !ok {
			return f.Error(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("vehicle %q not found", opts.Vehicle), nil)
		}
		out.Vehicle = &vehicle
		out.Target = engine.SyntheticTarget(vehicle)
		out.Result, err = eng.EvaluateVehicle(&donor, &vehicle)
		if err != nil {
			return f.Error(ExitCommandError, ErrCodeGeneric, "evaluation failed", err)
		}
	} else {
		target, err := lookupEngine(ctx, f, cat, "target", args[1])
		if err != nil {
			return err
		}
		out.Target = target
		out.Result, err = eng.Evaluate(&donor, &target)
		if err != nil {
			return f.Error(ExitCommandError, ErrCodeGeneric, "evaluation failed", err)
		}
	}

	out.RuleSetHash = eng.RuleSetHash()
	out.ResultHash, err = ir.ResultHash(out.Result)
	if err != nil {
		return f.Error(ExitCommandError, ErrCodeGeneric, "failed to hash result", err)
	}

	opts.logger().Debug("evaluation finished",
		"donor", out.Donor.Code,
		"target", out.Target.Code,
		"score", out.Result.Score,
		"level", out.Result.Level.String(),
		"rule_set_hash", out.RuleSetHash,
	)

	if opts.Record {
		rec := store.EvaluationRecord{
			DonorCode:   out.Donor.Code,
			TargetCode:  out.Target.Code,
			RuleSetHash: out.RuleSetHash,
			Result:      out.Result,
		}
		if out.Vehicle != nil {
			rec.VehicleID = out.Vehicle.Key()
		}
		stored, err := st.RecordEvaluation(ctx, rec)
		if err != nil {
			return f.Error(ExitCommandError, ErrCodeDatabase, "failed to record evaluation", err)
		}
		out.RecordID = stored.ID
	}

	text := func(w io.Writer) {
		fmt.Fprint(w, out.Result.Explanation)
		fmt.Fprintf(w, "\n%s\n", newStyles(w).summary(out.Result))
		if out.RecordID != "" {
			fmt.Fprintf(w, "Recorded evaluation %s\n", out.RecordID)
		}
	}

	if failOn != nil && !failOn.MoreSevereThan(out.Result.Level) {
		return f.Failure(ErrCodeGeneric,
			fmt.Sprintf("compatibility level %s reached --fail-on %s", out.Result.Level, *failOn), out, text)
	}
	return f.Success(out, text)
}

// loadEvaluationInputs resolves the rule list and the catalog chain.
// The database (when open) backs both.
func loadEvaluationInputs(ctx context.Context, f *OutputFormatter, src SourceOptions, st *store.Store) ([]ir.CompatibilityRule, catalog, error) {
	var rules []ir.CompatibilityRule
	var rulesBundle *compiler.Bundle

	switch {
	case src.Rules != "":
		b, err := loadSource(f, "rules", src.Rules)
		if err != nil {
			return nil, nil, err
		}
		rulesBundle = b
		rules = b.Rules
	case st != nil:
		stored, err := st.ListRules(ctx)
		if err != nil {
			return nil, nil, f.Error(ExitCommandError, ErrCodeDatabase, "failed to read rules from database", err)
		}
		f.VerboseLog("Loaded %d rule(s) from database", len(stored))
		rules = stored
	default:
		return nil, nil, f.Error(ExitCommandError, ErrCodeInvalidInput,
			"no rules: pass --rules, set rules in the configuration, or import into a database", nil)
	}

	var chain chainCatalog
	switch {
	case src.Catalog != "" && src.Catalog == src.Rules:
		chain = append(chain, bundleCatalog{rulesBundle})
	case src.Catalog != "":
		b, err := loadSource(f, "catalog", src.Catalog)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, bundleCatalog{b})
	}
	if st != nil {
		chain = append(chain, storeCatalog{st})
	}

	return rules, chain, nil
}

func lookupEngine(ctx context.Context, f *OutputFormatter, cat catalog, role, code string) (ir.EngineProfile, error) {
	p, ok, err := cat.engine(ctx, code)
	if err != nil {
		return ir.EngineProfile{}, f.Error(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to look up %s engine", role), err)
	}
	if !ok {
		return ir.EngineProfile{}, f.Error(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("%s engine %q not found", role, code), nil)
	}
	return p, nil
}
