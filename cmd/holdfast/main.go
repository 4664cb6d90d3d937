package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/holdfast-io/holdfast/pkg/api"
	"github.com/holdfast-io/holdfast/pkg/client"
	"github.com/holdfast-io/holdfast/pkg/config"
	"github.com/holdfast-io/holdfast/pkg/events"
	"github.com/holdfast-io/holdfast/pkg/gate"
	"github.com/holdfast-io/holdfast/pkg/log"
	"github.com/holdfast-io/holdfast/pkg/membership"
	"github.com/holdfast-io/holdfast/pkg/override"
	"github.com/holdfast-io/holdfast/pkg/probe"
	"github.com/holdfast-io/holdfast/pkg/reconciler"
	"github.com/holdfast-io/holdfast/pkg/storage"
	"github.com/holdfast-io/holdfast/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "holdfast",
	Short: "Holdfast - node readiness controller with audited overrides",
	Long: `Holdfast decides when a cluster node may serve traffic. It tracks peer
membership, evaluates quorum convergence, and drives a readiness gate that
load balancers probe. Operators can force a node open before convergence
with an explicit, audited, time-limited override.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Holdfast version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	serveCmd.Flags().String("config", "holdfast.yaml", "Path to the configuration file")

	statusCmd.Flags().String("addr", "127.0.0.1:7070", "Address of the node's HTTP API")
	auditCmd.Flags().String("addr", "127.0.0.1:7070", "Address of the node's HTTP API")
	auditCmd.Flags().Int("limit", 20, "Maximum number of records to show (0 for all)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(auditCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the readiness controller",
	Long: `Start the node: restore persisted membership, begin reconciling, and
expose the HTTP and gRPC readiness surfaces. If the configuration arms an
override, the node may open its gate before the cluster converges; the
override expires on its TTL and is retired silently once real convergence
arrives.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
		})
		logger := log.WithNodeID(cfg.NodeID)

		store, err := storage.NewBoltStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}

		view := membership.NewView()
		persisted, err := store.ListPeers()
		if err != nil {
			return fmt.Errorf("failed to restore peers: %w", err)
		}
		restored := make([]types.PeerInfo, 0, len(persisted))
		for _, p := range persisted {
			restored = append(restored, *p)
		}
		view.Restore(restored)
		if len(restored) > 0 {
			logger.Info().Int("peers", len(restored)).Msg("membership restored from disk")
		}

		seeds, err := cfg.SeedPeers()
		if err != nil {
			return err
		}
		for _, seed := range seeds {
			view.Seed(seed.ID, seed.Addr)
		}

		broker := events.NewBroker()
		broker.Start()

		var ov *override.Override
		if cfg.Override.Enabled {
			ov, err = override.Arm(cfg.Override.Justification, cfg.Override.TTL, time.Now())
			if err != nil {
				return err
			}
		}

		policy, err := cfg.Policy()
		if err != nil {
			return err
		}

		g := gate.New()
		loop := reconciler.NewLoop(view, ov, g, broker, store, reconciler.Config{
			Interval:            cfg.ReconcileInterval,
			Policy:              policy,
			MaxQuorumRecoveries: cfg.MaxQuorumRecoveries,
		})
		loop.Start()

		var prober *probe.Prober
		if cfg.Probe.Enabled {
			targets := make([]probe.Target, 0, len(seeds))
			for _, seed := range seeds {
				if seed.Addr == "" {
					continue
				}
				targets = append(targets, probe.Target{ID: seed.ID, Addr: seed.Addr})
			}
			prober = probe.NewProber(view, broker, targets, probe.Config{
				Interval: cfg.Probe.Interval,
				Timeout:  cfg.Probe.Timeout,
				Retries:  cfg.Probe.Retries,
			})
			prober.Start()
		}

		apiServer := api.NewServer(view, ov, g, loop, store, api.Config{
			NodeID:  cfg.NodeID,
			Version: Version,
			Policy:  policy,
		})
		errCh := make(chan error, 2)
		go func() {
			if err := apiServer.Start(cfg.HTTPAddr); err != nil {
				errCh <- fmt.Errorf("HTTP server error: %w", err)
			}
		}()

		var grpcServer *api.GRPCServer
		if cfg.GRPCAddr != "" {
			grpcServer = api.NewGRPCServer(g)
			go func() {
				if err := grpcServer.Start(cfg.GRPCAddr); err != nil {
					errCh <- fmt.Errorf("gRPC server error: %w", err)
				}
			}()
		}

		logger.Info().
			Str("http_addr", cfg.HTTPAddr).
			Str("grpc_addr", cfg.GRPCAddr).
			Bool("override_armed", ov != nil).
			Msg("holdfast running")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			logger.Info().Msg("shutting down")
		case err := <-errCh:
			logger.Error().Err(err).Msg("server failed")
		}

		if prober != nil {
			prober.Stop()
		}
		loop.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Stop(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP shutdown failed")
		}
		if grpcServer != nil {
			grpcServer.Stop()
		}
		broker.Stop()
		if err := store.Close(); err != nil {
			return fmt.Errorf("failed to close store: %w", err)
		}

		logger.Info().Msg("shutdown complete")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a node's readiness status",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		c := client.NewClient(addr)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		status, err := c.Status(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Node:      %s\n", status.NodeID)
		fmt.Printf("State:     %s\n", status.State)
		if status.Serving {
			fmt.Printf("Serving:   yes (%s, since %s)\n", status.Reason, status.ChangedAt.Format(time.RFC3339))
		} else {
			fmt.Printf("Serving:   no (since %s)\n", status.ChangedAt.Format(time.RFC3339))
		}
		fmt.Printf("Verdict:   %s", status.Verdict.Kind)
		if status.Verdict.Reason != "" {
			fmt.Printf(" (%s)", status.Verdict.Reason)
		}
		fmt.Printf(" [%d/%d fresh up]\n", status.Verdict.FreshUp, status.Verdict.Required)
		if status.Override != nil && status.Override.Armed {
			fmt.Printf("Override:  armed until %s: %q\n",
				status.Override.ExpiresAt.Format(time.RFC3339), status.Override.Justification)
		}

		peers, err := c.Peers(ctx)
		if err != nil {
			return err
		}
		if len(peers) > 0 {
			fmt.Printf("\nPeers (%d):\n", len(peers))
			for _, p := range peers {
				fmt.Printf("  %-20s %-12s incarnation=%d last_seen=%s\n",
					p.ID, p.State, p.Incarnation, p.LastSeen.Format(time.RFC3339))
			}
		}
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show a node's readiness audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		limit, _ := cmd.Flags().GetInt("limit")
		c := client.NewClient(addr)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		records, err := c.Audit(ctx, limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No audit records.")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%s  %-18s %s\n", r.Timestamp.Format(time.RFC3339), r.Kind, r.Message)
		}
		return nil
	},
}
