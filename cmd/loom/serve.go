package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loom-ui/loom/internal/config"
	"github.com/loom-ui/loom/pkg/live"
	"github.com/loom-ui/loom/pkg/middleware"
	"github.com/loom-ui/loom/pkg/template"
)

func serveCmd() *cobra.Command {
	var (
		port  int
		host  string
		trace bool
	)

	cmd := &cobra.Command{
		Use:   "serve [template]",
		Short: "Serve a template over live sessions",
		Long: `Serve a template file over live WebSocket sessions.

The server pushes a hello frame with the rendered HTML, dispatches
client events on the session loop, and pushes patch frames after each
handler turn. With dev.liveReload enabled, watched file changes push
reload frames to every connected session.

Examples:
  loom serve
  loom serve index.html --port=8080`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := "index.html"
			if len(args) > 0 {
				page = args[0]
			}
			return runServe(page, port, host, trace)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from loom.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from loom.json)")
	cmd.Flags().BoolVar(&trace, "trace", false, "Emit an OpenTelemetry span per dispatched event")

	return cmd
}

func runServe(page string, port int, host string, trace bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}

	if !filepath.IsAbs(page) {
		page = filepath.Join(root, page)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Re-read the template per session so edits take effect on reload.
	view := func() (*template.Fragment, error) {
		content, err := os.ReadFile(page)
		if err != nil {
			return nil, err
		}
		return template.Interp(string(content))
	}

	mws := []middleware.Middleware{middleware.Prometheus()}
	if trace {
		mws = append(mws, middleware.OpenTelemetry())
	}

	srv := live.NewServer(cfg, view,
		live.WithLogger(logger),
		live.WithMiddleware(mws...),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Dev.LiveReload {
		dirs := make([]string, 0, len(cfg.Dev.Watch))
		for _, d := range cfg.Dev.Watch {
			if !filepath.IsAbs(d) {
				d = filepath.Join(root, d)
			}
			if _, err := os.Stat(d); err == nil {
				dirs = append(dirs, d)
			}
		}
		if len(dirs) > 0 {
			go live.Watch(ctx, dirs, srv.Manager(), logger)
		}
	}

	fmt.Printf("serving %s on http://%s\n", filepath.Base(page), cfg.Address())
	err = srv.Start(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}
