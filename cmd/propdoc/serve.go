package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnana997/propdoc/pkg/catalog"
	mcpserver "github.com/gnana997/propdoc/pkg/mcp"
	"github.com/gnana997/propdoc/pkg/mcplog"
	"github.com/gnana997/propdoc/pkg/watch"
)

// serveCmd returns the MCP server command
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a widget catalog over MCP (stdio)",
		Long: `Starts an MCP server on stdin/stdout exposing list_widgets,
get_widget_properties and search_properties.

By default the catalog is read from --catalog. With --generate the catalog
is built from the widget config at startup, and --watch keeps it current.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("catalog", "", "Catalog JSON to serve (default: output from the project config, then propdoc.json)")
	cmd.Flags().String("log-file", "", "Append a JSONL record of every tool call to this file")
	cmd.Flags().Bool("generate", false, "Build the catalog from the widget config instead of reading it")
	cmd.Flags().Bool("watch", false, "Regenerate the served catalog when sources change (implies --generate)")
	cmd.Flags().String("widgets", "", "Widget config used with --generate")
	addGenerateFlags(cmd)
	cmd.Flags().Lookup("out").Hidden = true
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, os.Getenv)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	watchSources, _ := cmd.Flags().GetBool("watch")
	generate, _ := cmd.Flags().GetBool("generate")
	generate = generate || watchSources

	calls, err := mcplog.NewLogger(cfg.CallLog)
	if err != nil {
		return err
	}
	defer calls.Close()

	if !generate {
		qs, err := catalog.LoadAndQuery(cfg.CatalogPath())
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		logger.Info("serving catalog", "path", cfg.CatalogPath(), "widgets", len(qs.Catalog.Widgets))
		return mcpserver.NewServer(qs, calls, logger).ServeStdio()
	}

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	qs, err := buildQueryService(ctx, eng)
	if err != nil {
		return err
	}
	srv := mcpserver.NewServer(qs, calls, logger)

	if watchSources {
		w, err := watch.New(watch.Options{Logger: logger})
		if err != nil {
			return err
		}
		defer w.Stop()
		if err := watchProject(w, eng); err != nil {
			return err
		}
		err = w.Start(ctx, func(ctx context.Context, changed []string) {
			eng.invalidate(changed)
			qs, err := buildQueryService(ctx, eng)
			if err != nil {
				logger.Error("regeneration failed, keeping previous catalog", "error", err)
				return
			}
			srv.Reload(qs)
		})
		if err != nil {
			return err
		}
	}

	return srv.ServeStdio()
}

func buildQueryService(ctx context.Context, eng *engine) (*catalog.QueryService, error) {
	cat, stats, err := eng.generate(ctx)
	if err != nil {
		return nil, err
	}
	eng.logStats(stats)
	return catalog.NewQueryService(cat, cat.BuildIndex()), nil
}
