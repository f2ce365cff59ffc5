package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/roach88/swapcheck/internal/compiler"
	"github.com/roach88/swapcheck/internal/ir"
)

// ListOptions holds flags for the rules, engines and vehicles commands.
type ListOptions struct {
	*RootOptions
	Database string
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules [rules-path]",
		Short: "List rules in evaluation order",
		Long: `List rules in the order they are applied.

Rules are read from the given path, the configured rules path, or the
database, in that order.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := loadListing(cmd, opts, args, opts.cfg().Rules)
			if err != nil {
				return err
			}
			return outputRules(opts.formatter(cmd), bundle.Rules)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "read from this database when no path is given")
	return cmd
}

// NewEnginesCommand creates the engines command.
func NewEnginesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "engines [catalog-path]",
		Short:         "List catalog engine profiles",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := loadListing(cmd, opts, args, catalogPath(opts.RootOptions))
			if err != nil {
				return err
			}
			return outputEngines(opts.formatter(cmd), bundle.Engines)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "read from this database when no path is given")
	return cmd
}

// NewVehiclesCommand creates the vehicles command.
func NewVehiclesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "vehicles [catalog-path]",
		Short:         "List catalog vehicle profiles",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := loadListing(cmd, opts, args, catalogPath(opts.RootOptions))
			if err != nil {
				return err
			}
			return outputVehicles(opts.formatter(cmd), bundle.Vehicles)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "read from this database when no path is given")
	return cmd
}

func catalogPath(opts *RootOptions) string {
	cfg := opts.cfg()
	if cfg.Catalog != "" {
		return cfg.Catalog
	}
	return cfg.Rules
}

// loadListing reads a bundle from the positional path, the configured
// path, or the database.
func loadListing(cmd *cobra.Command, opts *ListOptions, args []string, configured string) (*compiler.Bundle, error) {
	f := opts.formatter(cmd)

	path := configured
	if len(args) == 1 {
		path = args[0]
	}
	if path != "" {
		return loadSource(f, "sources", path)
	}

	db := opts.Database
	if db == "" {
		db = opts.cfg().Database
	}
	if !databaseExists(db) {
		return nil, f.Error(ExitCommandError, ErrCodeInvalidInput, "no path given, none configured, and no database found", nil)
	}

	st, err := openStore(f, db)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bundle := &compiler.Bundle{Files: []string{db}}
	if bundle.Rules, err = st.ListRules(ctx); err != nil {
		return nil, f.Error(ExitCommandError, ErrCodeDatabase, "failed to read rules", err)
	}
	if bundle.Engines, err = st.ListEngineProfiles(ctx); err != nil {
		return nil, f.Error(ExitCommandError, ErrCodeDatabase, "failed to read engines", err)
	}
	if bundle.Vehicles, err = st.ListVehicleProfiles(ctx); err != nil {
		return nil, f.Error(ExitCommandError, ErrCodeDatabase, "failed to read vehicles", err)
	}
	return bundle, nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func outputRules(f *OutputFormatter, rules []ir.CompatibilityRule) error {
	if rules == nil {
		rules = []ir.CompatibilityRule{}
	}
	return f.Success(rules, func(w io.Writer) {
		if len(rules) == 0 {
			fmt.Fprintln(w, "No rules.")
			return
		}
		t := newTable("#", "ID", "WHEN", "EFFECT")
		for i, r := range rules {
			t.Row(strconv.Itoa(i+1), r.ID, describeCondition(r.When), describeEffect(r.Effect))
		}
		fmt.Fprintln(w, t.Render())
	})
}

func outputEngines(f *OutputFormatter, engines []ir.EngineProfile) error {
	if engines == nil {
		engines = []ir.EngineProfile{}
	}
	return f.Success(engines, func(w io.Writer) {
		if len(engines) == 0 {
			fmt.Fprintln(w, "No engines.")
			return
		}
		t := newTable("CODE", "PHASE", "YEARS", "THROTTLE", "AIR", "VALVES", "BUS")
		for _, p := range engines {
			t.Row(p.Code, p.Phase.String(), p.YearRange, p.Throttle.String(),
				p.AirMetering.String(), p.ValveControl.String(), p.EcuBus.String())
		}
		fmt.Fprintln(w, t.Render())
	})
}

func outputVehicles(f *OutputFormatter, vehicles []ir.VehicleProfile) error {
	if vehicles == nil {
		vehicles = []ir.VehicleProfile{}
	}
	return f.Success(vehicles, func(w io.Writer) {
		if len(vehicles) == 0 {
			fmt.Fprintln(w, "No vehicles.")
			return
		}
		t := newTable("KEY", "MODEL", "YEAR", "REGION", "PHASE", "BUS", "IMMOBILIZER")
		for _, v := range vehicles {
			t.Row(v.Key(), v.Model, strconv.Itoa(v.Year), v.Region,
				v.ChassisPhase.String(), v.ExpectedBus.String(), strconv.FormatBool(v.HasImmobilizer))
		}
		fmt.Fprintln(w, t.Render())
	})
}

// describeCondition renders a condition as "donor{phase=Phase2} target{...}".
func describeCondition(c *ir.RuleCondition) string {
	if c == nil {
		return "(none)"
	}
	var parts []string
	if c.Donor != nil {
		parts = append(parts, "donor"+describeCriteria(c.Donor))
	}
	if c.Target != nil {
		parts = append(parts, "target"+describeCriteria(c.Target))
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

func describeCriteria(c ir.Criteria) string {
	pairs := make([]string, 0, len(c))
	for _, k := range ir.SortedKeys(c) {
		pairs = append(pairs, k+"="+c[k])
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// describeEffect renders the non-zero parts of an effect.
func describeEffect(e *ir.RuleEffect) string {
	if e == nil {
		return "(none)"
	}
	var parts []string
	if e.Level != nil {
		parts = append(parts, "level="+e.Level.String())
	}
	if e.ScoreDelta != 0 {
		parts = append(parts, fmt.Sprintf("score%+d", e.ScoreDelta))
	}
	if e.AddWarning != "" {
		parts = append(parts, "warning")
	}
	if e.AddChange != nil {
		parts = append(parts, fmt.Sprintf("change[%s]", e.AddChange.Severity))
	}
	if len(parts) == 0 {
		return "(no-op)"
	}
	return strings.Join(parts, " ")
}
