package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/swapcheck/internal/compiler"
	"github.com/roach88/swapcheck/internal/engine"
	"github.com/roach88/swapcheck/internal/metrics"
	"github.com/roach88/swapcheck/internal/watch"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	SourceOptions
	MetricsAddr string
	Donor       string
	Target      string
	Vehicle     string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload rules on change and serve metrics",
		Long: `Watch the rule source and recompile it whenever a file changes.

A failed reload is logged and the previously loaded rules stay active.
With --donor and --target (or --vehicle), the pair is re-evaluated after
every successful reload. With --metrics-addr, Prometheus metrics are
served on /metrics.

The command runs until interrupted (Ctrl+C or SIGTERM).

Examples:
  swapcheck watch --rules ./rules --donor EJ205 --target EJ22E
  swapcheck watch --rules ./rules --metrics-addr :9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "rule file or directory to watch")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "engine/vehicle catalog file or directory")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&opts.Donor, "donor", "", "donor engine to re-evaluate after each reload")
	cmd.Flags().StringVar(&opts.Target, "target", "", "target engine to re-evaluate against")
	cmd.Flags().StringVar(&opts.Vehicle, "vehicle", "", "vehicle to re-evaluate against instead of a target engine")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg := opts.cfg()
	log := opts.logger()

	src := opts.SourceOptions.resolve(opts.RootOptions)
	if src.Rules == "" {
		return f.Error(ExitCommandError, ErrCodeInvalidInput, "no rules to watch: pass --rules or set rules in the configuration", nil)
	}
	if opts.Target != "" && opts.Vehicle != "" {
		return f.Error(ExitCommandError, ErrCodeInvalidInput, "give either --target or --vehicle, not both", nil)
	}
	if opts.Donor != "" && opts.Target == "" && opts.Vehicle == "" {
		return f.Error(ExitCommandError, ErrCodeInvalidInput, "--donor needs --target or --vehicle", nil)
	}

	addr := opts.MetricsAddr
	if addr == "" {
		addr = cfg.Metrics.ListenAddress
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	registry := prometheus.NewRegistry()
	m := metrics.New(cfg.Metrics.Namespace, registry)

	var staticCatalog *compiler.Bundle
	if src.Catalog != "" && src.Catalog != src.Rules {
		b, err := loadSource(f, "catalog", src.Catalog)
		if err != nil {
			return err
		}
		staticCatalog = b
	}

	// latest is only touched from the initial load and the watcher
	// goroutine, never concurrently.
	var latest *compiler.Bundle
	load := func(ctx context.Context) (*engine.Engine, error) {
		b, err := compiler.Load(src.Rules)
		if err != nil {
			return nil, err
		}
		for _, finding := range compiler.Lint(b.Rules) {
			log.Warn("rule lint finding", "code", finding.Code, "rule_id", finding.RuleID, "message", finding.Message)
		}
		latest = b
		return engine.New(b.Rules, engine.WithLogger(log), engine.WithObserver(m)), nil
	}

	reloader, err := watch.NewReloader(ctx, load, m, log)
	if err != nil {
		return f.Error(ExitCommandError, ErrCodeLoadFailed, fmt.Sprintf("failed to load rules from %s", src.Rules), err)
	}

	watcher, err := watch.New(watch.Config{
		Path:       src.Rules,
		Debounce:   cfg.Watch.Debounce,
		Extensions: compiler.SourceExtensions,
	}, log)
	if err != nil {
		return f.Error(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("cannot watch %s", src.Rules), err)
	}

	w := cmd.OutOrStdout()
	report := func() {
		if opts.Donor == "" {
			return
		}
		catalog := staticCatalog
		if catalog == nil {
			catalog = latest
		}
		if err := reportWatchEvaluation(w, f, reloader.Engine(), catalog, opts); err != nil {
			log.Error("evaluation failed", "error", err)
		}
	}
	report()

	if addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metricsMux(registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("serving metrics", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
				cancel()
			}
		}()
		defer shutdownMetricsServer(srv, log)
	}

	log.Info("watching rules", "path", src.Rules, "rule_set_hash", reloader.Engine().RuleSetHash())

	err = watcher.Run(ctx, func(ctx context.Context) error {
		if err := reloader.Reload(ctx); err != nil {
			return err
		}
		report()
		return nil
	})
	if err != nil {
		return f.Error(ExitFailure, ErrCodeGeneric, "watcher stopped", err)
	}
	return nil
}

func metricsMux(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	return mux
}

// reportWatchEvaluation evaluates the configured pair with eng and writes
// the result the way evaluate does.
func reportWatchEvaluation(w io.Writer, f *OutputFormatter, eng *engine.Engine, catalog *compiler.Bundle, opts *WatchOptions) error {
	if catalog == nil {
		return fmt.Errorf("no catalog loaded")
	}
	donor, ok := catalog.Engine(opts.Donor)
	if !ok {
		return fmt.Errorf("donor engine %q not found", opts.Donor)
	}

	out := EvaluateOutput{Donor: donor, RuleSetHash: eng.RuleSetHash()}
	var err error
	if opts.Vehicle != "" {
		vehicle, ok := catalog.Vehicle(opts.Vehicle)
		if !ok {
			return fmt.Errorf("vehicle %q not found", opts.Vehicle)
		}
		out.Vehicle = &vehicle
		out.Target = engine.SyntheticTarget(vehicle)
		out.Result, err = eng.EvaluateVehicle(&donor, &vehicle)
	} else {
		target, ok := catalog.Engine(opts.Target)
		if !ok {
			return fmt.Errorf("target engine %q not found", opts.Target)
		}
		out.Target = target
		out.Result, err = eng.Evaluate(&donor, &target)
	}
	if err != nil {
		return err
	}

	if f.IsJSON() {
		return f.Success(out, nil)
	}
	fmt.Fprint(w, out.Result.Explanation)
	fmt.Fprintf(w, "\n%s\n\n", newStyles(w).summary(out.Result))
	return nil
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownMetricsServer stops srv, giving open scrapes five seconds to finish.
func shutdownMetricsServer(srv shutdowner, log *slog.Logger) {
	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("metrics server shutdown failed", "error", err)
	}
}
