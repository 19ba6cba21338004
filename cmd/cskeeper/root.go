package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vintari/cskeeper/config"
	"github.com/vintari/cskeeper/gateway"
	"github.com/vintari/cskeeper/journal"
	"github.com/vintari/cskeeper/reconciler"
	"github.com/vintari/cskeeper/telemetry"
	"github.com/vintari/cskeeper/types"
)

var (
	version = "0.1.0"

	configPath   string
	dryRun       bool
	noPoll       bool
	pollInterval time.Duration
	timeout      time.Duration
	journalDir   string
	verbose      bool

	rootCmd = &cobra.Command{
		Use:   "cskeeper",
		Short: "Declarative CloudStack resource keeper",
		Long: `Cskeeper - declarative CloudStack resource keeper

Cskeeper reconciles CloudStack resources against a declared desired
state without keeping state files. The cloud IS the state: every run
looks resources up by their natural key, diffs the mutable attributes
and issues only the calls needed to close the gap.

Manage domains, ISO images and security groups one at a time, or
apply a whole manifest in order.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Cskeeper {{.Version}} - Declarative CloudStack resource keeper
`)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Compute changes without applying them")
	rootCmd.PersistentFlags().BoolVar(&noPoll, "no-poll", false, "Return after issuing async calls instead of waiting for the job")
	rootCmd.PersistentFlags().DurationVar(&pollInterval, "poll-interval", 0, "Async job poll interval (default 2s)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Overall deadline for the invocation (0 = none)")
	rootCmd.PersistentFlags().StringVar(&journalDir, "journal-dir", "", "Directory for the invocation journal (empty = no journal)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// runtime bundles everything a subcommand needs for one invocation.
type runtime struct {
	cfg    *config.Config
	log    *telemetry.Logger
	gw     gateway.API
	jrnl   *journal.Journal
	opts   reconciler.Options
	cancel context.CancelFunc

	otelShutdown func(context.Context) error
}

// newRuntime loads config and wires the gateway, logger, journal and
// telemetry for one invocation. Call close when done.
func newRuntime() (context.Context, *runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		level = parsed
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log := telemetry.NewLogger("cskeeper")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, timeout)
		signalCancel := cancel
		cancel = func() {
			timeoutCancel()
			signalCancel()
		}
	}

	rt := &runtime{
		cfg:    cfg,
		log:    log,
		cancel: cancel,
		opts: reconciler.Options{
			DryRun:       dryRun,
			PollAsync:    !noPoll,
			PollInterval: pollInterval,
		},
	}

	if cfg.OTELEndpoint != "" {
		shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
			ServiceName:    "cskeeper",
			ServiceVersion: version,
			OTELEndpoint:   cfg.OTELEndpoint,
			Insecure:       true,
		})
		if err != nil {
			cancel()
			return nil, nil, fmt.Errorf("failed to init telemetry: %w", err)
		}
		rt.otelShutdown = shutdown
	}

	gw, err := gateway.New(cfg.GatewayConfig(), log.Logger)
	if err != nil {
		rt.close()
		return nil, nil, fmt.Errorf("failed to create gateway: %w", err)
	}
	rt.gw = gw

	dir := journalDir
	if dir == "" {
		dir = cfg.JournalDir
	}
	if dir != "" {
		jrnl, err := journal.Open(dir)
		if err != nil {
			rt.close()
			return nil, nil, fmt.Errorf("failed to open journal: %w", err)
		}
		rt.jrnl = jrnl
	}

	return ctx, rt, nil
}

func (rt *runtime) close() {
	if rt.jrnl != nil {
		if err := rt.jrnl.Close(); err != nil {
			rt.log.Warn().Err(err).Msg("journal close failed")
		}
	}
	if rt.otelShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.otelShutdown(shutdownCtx); err != nil {
			rt.log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}
	rt.cancel()
}

// printResult writes the reconciliation outcome as JSON on stdout. Logs
// go to stderr, so stdout stays machine-readable.
func printResult(result any) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// parseTags turns key=value pairs into tags. A pair without = is a bare
// key with an empty value.
func parseTags(pairs []string) []types.Tag {
	if pairs == nil {
		return nil
	}
	tags := make([]types.Tag, 0, len(pairs))
	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		tags = append(tags, types.Tag{Key: key, Value: value})
	}
	return tags
}

func validState(state string) error {
	if state != "present" && state != "absent" {
		return fmt.Errorf("state must be present or absent, got %q", state)
	}
	return nil
}
