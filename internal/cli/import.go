package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/swapcheck/internal/compiler"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	SourceOptions
	SkipLint bool
}

// ImportResult is the JSON payload of the import command.
type ImportResult struct {
	Database string   `json:"database"`
	Rules    int      `json:"rules"`
	Engines  int      `json:"engines"`
	Vehicles int      `json:"vehicles"`
	Files    []string `json:"files"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import rules and catalog profiles into the database",
		Long: `Compile rules and catalog sources and store them in the SQLite database.

The stored rule list replaces any previous one, keeping source order.
Engines and vehicles are upserted by code and key. Rules with lint
findings are refused unless --skip-lint is given.

Examples:
  swapcheck import --rules ./rules --catalog ./catalog --db swapcheck.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "rule file or directory")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "engine/vehicle catalog file or directory")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path")
	cmd.Flags().BoolVar(&opts.SkipLint, "skip-lint", false, "import rules even when lint reports findings")

	return cmd
}

func runImport(opts *ImportOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	src := opts.SourceOptions.resolve(opts.RootOptions)
	if src.Rules == "" && src.Catalog == "" {
		return f.Error(ExitCommandError, ErrCodeInvalidInput, "nothing to import: pass --rules and/or --catalog", nil)
	}

	bundle := &compiler.Bundle{}
	if src.Rules != "" {
		b, err := loadSource(f, "rules", src.Rules)
		if err != nil {
			return err
		}
		if findings := compiler.Lint(b.Rules); len(findings) > 0 && !opts.SkipLint {
			for _, finding := range findings {
				f.VerboseLog("%s", finding.Error())
			}
			return f.Error(ExitFailure, ErrCodeLintFailed,
				fmt.Sprintf("rules have %d lint finding(s); run validate or pass --skip-lint", len(findings)), nil)
		}
		bundle.Merge(b)
	}
	if src.Catalog != "" && src.Catalog != src.Rules {
		b, err := loadSource(f, "catalog", src.Catalog)
		if err != nil {
			return err
		}
		b.Rules = nil
		bundle.Merge(b)
	}

	st, err := openStore(f, src.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	log := opts.logger()

	if src.Rules != "" {
		if err := st.ReplaceRules(ctx, bundle.Rules); err != nil {
			return f.Error(ExitCommandError, ErrCodeDatabase, "failed to store rules", err)
		}
		log.Info("rules imported", "count", len(bundle.Rules), "db", src.Database)
	}
	for _, p := range bundle.Engines {
		if err := st.PutEngineProfile(ctx, p); err != nil {
			return f.Error(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to store engine %s", p.Code), err)
		}
	}
	for _, v := range bundle.Vehicles {
		if err := st.PutVehicleProfile(ctx, v); err != nil {
			return f.Error(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to store vehicle %s", v.Key()), err)
		}
	}
	log.Info("catalog imported", "engines", len(bundle.Engines), "vehicles", len(bundle.Vehicles))

	result := ImportResult{
		Database: src.Database,
		Rules:    len(bundle.Rules),
		Engines:  len(bundle.Engines),
		Vehicles: len(bundle.Vehicles),
		Files:    bundle.Files,
	}
	if result.Files == nil {
		result.Files = []string{}
	}

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Imported %d rules, %d engines, %d vehicles into %s\n",
			result.Rules, result.Engines, result.Vehicles, result.Database)
	})
}
