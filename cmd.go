package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/auth"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/config"
	grpcserver "github.com/ahennings5-ai/andrews-sandbox-sub000/internal/grpc"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/handlers"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/league"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/mcptools"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/metrics"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/mocks"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/pubsub"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "dynasty",
		Short:         "Dynasty fantasy football trade engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")

	load := func() (config.Config, error) { return config.Load(envFile) }

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, gRPC and MCP APIs with the background sync loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	root.RunE = serve.RunE
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if cmd != root && cmd != serve {
			// stdout carries the command's output
			logger.SetOutput(os.Stderr)
		}
	}

	root.AddCommand(serve, newSyncCmd(load), newTradesCmd(load), newRoadmapCmd(load), newValueCmd(load), newMCPCmd(load))
	return root
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger.Info("Starting dynasty trade engine", "version", version, "environment", cfg.Environment)

	var cl closers
	defer cl.close()

	store, err := openDAL(cfg)
	if err != nil {
		return err
	}
	cl.add(func() { store.Close() })

	upstream, closeUpstream, err := openUpstream(cfg)
	if err != nil {
		return err
	}
	cl.add(closeUpstream)
	ps := pubsub.NewWithUpstream(upstream)

	market, err := openMarketFeed(cfg, &cl)
	if err != nil {
		return err
	}
	reg := metrics.New()
	svc, err := newLeague(cfg, store, market, openRosterFeed(cfg), ps, reg)
	if err != nil {
		return err
	}
	if err := svc.Restore(ctx); err != nil {
		logger.Warn("Could not restore stored catalog", "error", err)
	}

	var provider auth.Provider
	if cfg.Development() {
		logger.Info("Using mock authentication for local development", "token", auth.MockDevToken)
		provider = auth.NewMockAuth(cfg.CommissionerGroup)
	} else {
		provider = auth.NewAuthentikAuth(&auth.AuthentikConfig{
			BaseURL:      cfg.AuthentikBaseURL,
			ClientID:     cfg.AuthentikClientID,
			ClientSecret: cfg.AuthentikClientSecret,
			RedirectURL:  cfg.AuthentikRedirectURL,
		})
		logger.Info("Using Authentik", "url", cfg.AuthentikBaseURL)
	}

	mux := handlers.NewAPIHandlers(svc, ps).Routes(provider, cfg.CommissionerGroup, reg.Handler())
	mux.Handle("/mcp", mcptools.HTTPHandler(mcptools.NewServer(svc, version)))

	httpServer := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor))
	healthServer := grpcserver.Register(grpcServer, grpcserver.NewServer(svc, ps))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		svc.Run(gctx, cfg.SyncInterval)
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", "0.0.0.0:"+cfg.GRPCPort)
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC: %w", err)
		}
		logger.Info("gRPC server starting", "address", lis.Addr().String())
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("Server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		healthServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)

		// event streams only end when clients hang up
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
		return err
	})
	return g.Wait()
}

// oneShot is the wiring shared by the single-run commands: the configured
// store and feeds, an in-process bus, and a freshly refreshed catalog
type oneShot struct {
	svc *league.Service
	cl  closers
}

func newOneShot(ctx context.Context, cfg config.Config) (*oneShot, error) {
	o := &oneShot{}
	store, err := openDAL(cfg)
	if err != nil {
		return nil, err
	}
	o.cl.add(func() { store.Close() })

	market, err := openMarketFeed(cfg, &o.cl)
	if err != nil {
		o.cl.close()
		return nil, err
	}
	bus := mocks.NewEventLog()
	o.cl.add(bus.Close)
	o.svc, err = newLeague(cfg, store, market, openRosterFeed(cfg), bus, nil)
	if err != nil {
		o.cl.close()
		return nil, err
	}
	if _, err := o.svc.Refresh(ctx); err != nil {
		o.cl.close()
		return nil, err
	}
	return o, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type configLoader func() (config.Config, error)

func newSyncCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh market values and pull rosters once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			o, err := newOneShot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer o.cl.close()

			res, err := o.svc.SyncRosters(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newTradesCmd(load configLoader) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "trades TEAM_ID",
		Short: "Print ranked trade proposals for a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			o, err := newOneShot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer o.cl.close()

			proposals, ph, err := o.svc.Trades(cmd.Context(), args[0], mode)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{"teamId": args[0], "mode": ph, "proposals": proposals})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "phase override: tank, rebuild, retool or contend")
	return cmd
}

func newRoadmapCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "roadmap TEAM_ID",
		Short: "Print a team's roadmap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			o, err := newOneShot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer o.cl.close()

			rm, err := o.svc.Roadmap(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, rm)
		},
	}
}

func newValueCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "value NAME",
		Short: "Look up a player's market value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			o, err := newOneShot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer o.cl.close()

			v, err := o.svc.LookupValue(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, v)
		},
	}
}

func newMCPCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the league tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			o, err := newOneShot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer o.cl.close()

			return mcptools.RunStdio(cmd.Context(), mcptools.NewServer(o.svc, version))
		},
	}
}
