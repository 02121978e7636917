package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/chatrelay/internal/adapters/http"
	"github.com/PabloGalante/chatrelay/internal/adapters/tui"
	"github.com/PabloGalante/chatrelay/internal/config"
	"github.com/PabloGalante/chatrelay/internal/observability"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.Load()
	var dev bool

	root := &cobra.Command{
		Use:           "chatrelay",
		Short:         "Single-session chat front-end for Groq with Supabase history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Mode = config.ModeLive
			if dev {
				cfg.Mode = config.ModeDev
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.SecretsFile, "secrets-file", cfg.SecretsFile, "TOML or YAML file holding GROQ_API_KEY, SUPABASE_URL, SUPABASE_KEY")
	flags.BoolVar(&dev, "dev", cfg.Mode == config.ModeDev, "run offline with the echo completer and in-memory history")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "append logs to this file (tui logs nowhere without it)")

	root.AddCommand(newServeCommand(cfg), newTUICommand(cfg))
	return root
}

func newServeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web chat page",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, closeLog, err := logOutput(cfg.LogFile, os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()
			if _, err := observability.Setup(observability.Options{Level: cfg.LogLevel, Output: out}); err != nil {
				return err
			}

			session, err := newSession(cfg)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg.Addr, httpadapter.NewServer(session))
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	return cmd
}

func newTUICommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Chat from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, closeLog, err := logOutput(cfg.LogFile, io.Discard)
			if err != nil {
				return err
			}
			defer closeLog()
			if _, err := observability.Setup(observability.Options{Level: cfg.LogLevel, Output: out}); err != nil {
				return err
			}

			session, err := newSession(cfg)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), session)
		},
	}
}

// logOutput opens path for appending, or returns def when path is empty.
func logOutput(path string, def io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return def, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open log file %s", path)
	}
	return f, func() { _ = f.Close() }, nil
}

func serve(ctx context.Context, addr string, handler http.Handler) error {
	log := observability.Logger()
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "server shutdown")
		}
		return nil
	})

	eg.Go(func() error {
		log.Info("chatrelay listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})

	return eg.Wait()
}
