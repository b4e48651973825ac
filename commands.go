package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reflexion_agent/config"
	"reflexion_agent/generator"
	"reflexion_agent/render"
	"reflexion_agent/server"
	"reflexion_agent/tracing"
)

type rootFlags struct {
	configPath string
	verbose    bool
	trace      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "reflexion",
		Short:         "Draft, research and revise cited answers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file (yaml or json)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logs")
	root.PersistentFlags().BoolVar(&flags.trace, "trace", false, "print trace spans to stderr")

	root.AddCommand(newAskCmd(flags), newServeCmd(flags), newSchemaCmd())
	return root
}

// setup loads config and builds the logger, honouring --trace.
func setup(flags *rootFlags) (config.Config, *zap.Logger, func(), error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger, err := newLogger(cfg.Log.Level, flags.verbose)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	cleanup := func() { _ = logger.Sync() }
	if flags.trace {
		shutdown, err := tracing.Setup(os.Stderr)
		if err != nil {
			return config.Config{}, nil, nil, err
		}
		cleanup = func() {
			_ = shutdown(context.Background())
			_ = logger.Sync()
		}
	}
	return cfg, logger, cleanup, nil
}

func newAskCmd(flags *rootFlags) *cobra.Command {
	var format string
	var maxIterations int
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question and print the final revision",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := setup(flags)
			if err != nil {
				return err
			}
			defer cleanup()
			if maxIterations > 0 {
				cfg.Loop.MaxIterations = maxIterations
			}

			loop, err := buildLoop(cfg, logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out, err := loop.Research(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			answer := render.LinkCitations(out.Answer, out.Final.Reference)
			switch format {
			case "html":
				html, err := render.HTML(answer)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), html)
			case "pretty":
				text, err := render.Terminal(answer, 100)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), out.Answer)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, html or pretty")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "override loop.max_iterations")
	return cmd
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, cleanup, err := setup(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			loop, err := buildLoop(cfg, logger)
			if err != nil {
				return err
			}
			srv, err := server.New(loop, cfg.Server, logger.Named("server"))
			if err != nil {
				return err
			}
			listen := cfg.Server.Addr
			if addr != "" {
				listen = addr
			}
			if listen == "" {
				listen = ":8080"
			}

			httpSrv := &http.Server{Addr: listen, Handler: srv.Routes(), ReadHeaderTimeout: 10 * time.Second}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			}()

			logger.Info("starting web server", zap.String("addr", listen))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the draft and revision tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tools := []generator.ToolSpec{
				generator.ToolFor(generator.ShapeDraft),
				generator.ToolFor(generator.ShapeRevision),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tools)
		},
	}
}
