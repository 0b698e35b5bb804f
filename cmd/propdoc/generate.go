package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnana997/propdoc/pkg/catalog"
	"github.com/gnana997/propdoc/pkg/watch"
	"github.com/gnana997/propdoc/pkg/widgets"
)

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().String("root", "", "Project root (default: working directory)")
	cmd.Flags().String("tsconfig", "", "tsconfig path, relative to the root (default: tsconfig.json when present)")
	cmd.Flags().StringP("out", "o", "", "Write the catalog to this file instead of stdout")
	cmd.Flags().Int("workers", 0, "Files processed concurrently (default: derived from CPU count)")
	cmd.Flags().String("name", "", "Catalog name recorded in logs")
}

// generateCmd returns the catalog generation command
func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [widgets-config]",
		Short: "Extract widget properties into a JSON catalog",
		Long: `Reads a widget config (JSON or YAML mapping widget names to source files),
extracts the Properties and Children interfaces of every widget, and writes
the catalog as JSON to --out or stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGenerate,
	}
	addGenerateFlags(cmd)
	return cmd
}

// watchCmd returns the watch command
func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [widgets-config]",
		Short: "Regenerate the catalog whenever widget sources change",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatch,
	}
	addGenerateFlags(cmd)
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before regenerating")
	return cmd
}

// commandConfig resolves settings and applies the optional widgets-config
// argument.
func commandConfig(cmd *cobra.Command, args []string) (ProjectConfig, error) {
	cfg, err := resolveConfig(cmd, os.Getenv)
	if err != nil {
		return ProjectConfig{}, err
	}
	if len(args) > 0 {
		cfg.Widgets = args[0]
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	cat, stats, err := eng.generate(cmd.Context())
	if err != nil {
		return err
	}
	if err := writeCatalog(cmd, cat, cfg.Output); err != nil {
		return err
	}
	eng.logStats(stats)
	return nil
}

func writeCatalog(cmd *cobra.Command, cat *catalog.Catalog, out string) error {
	if out == "" {
		return cat.Encode(cmd.OutOrStdout())
	}
	return cat.Save(out)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Output == "" {
		return fmt.Errorf("watch requires --out (or output in the project config)")
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")
	logger := newLogger(cfg, cmd.ErrOrStderr())

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regenerate := func(ctx context.Context) {
		cat, stats, err := eng.generate(ctx)
		if err != nil {
			logger.Error("regeneration failed", "error", err)
			return
		}
		if err := cat.Save(cfg.Output); err != nil {
			logger.Error("failed to write catalog", "path", cfg.Output, "error", err)
			return
		}
		eng.logStats(stats)
	}

	w, err := watch.New(watch.Options{Debounce: debounce, Logger: logger})
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := watchProject(w, eng); err != nil {
		return err
	}

	regenerate(ctx)
	err = w.Start(ctx, func(ctx context.Context, changed []string) {
		logger.Info("sources changed", "files", len(changed))
		eng.invalidate(changed)
		regenerate(ctx)
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

// watchProject registers the widget config, the tsconfig and the
// directory of every configured source with w.
func watchProject(w *watch.Watcher, eng *engine) error {
	if err := w.AddFile(eng.widgetsPath()); err != nil {
		return err
	}
	if ts := eng.project.TSConfigPath(); ts != "" {
		if err := w.AddFile(ts); err != nil {
			return err
		}
	}

	wcfg, err := widgets.LoadConfig(eng.widgetsPath())
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, p := range wcfg.Paths() {
		dir := filepath.Dir(eng.project.Resolve(p))
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if _, err := os.Stat(dir); err != nil {
			eng.logger.Warn("not watching missing directory", "path", dir)
			continue
		}
		if err := w.AddDir(dir); err != nil {
			return err
		}
	}
	return nil
}
