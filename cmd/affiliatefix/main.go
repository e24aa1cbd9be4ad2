package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ajuna-network/affiliate-fix/internal/affiliation"
	"github.com/ajuna-network/affiliate-fix/internal/alert"
	"github.com/ajuna-network/affiliate-fix/internal/chain"
	"github.com/ajuna-network/affiliate-fix/internal/chain/substrate"
	"github.com/ajuna-network/affiliate-fix/internal/config"
	"github.com/ajuna-network/affiliate-fix/internal/csvio"
	"github.com/ajuna-network/affiliate-fix/internal/domain/model"
	"github.com/ajuna-network/affiliate-fix/internal/metrics"
	"github.com/ajuna-network/affiliate-fix/internal/pipeline"
	"github.com/ajuna-network/affiliate-fix/internal/subscan"
	"github.com/ajuna-network/affiliate-fix/internal/tracing"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const serviceName = "affiliatefix"

type subscanAPI interface {
	affiliation.EventLister
	affiliation.EventGetter
}

type app struct {
	out        io.Writer
	configPath string
	logLevel   string
	flags      overrides

	cfg    *config.Config
	logger *slog.Logger
	runID  string

	newDialer  func(cfg *config.Config, logger *slog.Logger) chain.Dialer
	newSubscan func(cfg *config.Config, logger *slog.Logger) subscanAPI
}

func newApp(out io.Writer) *app {
	return &app{
		out:        out,
		newDialer:  nodeDialer,
		newSubscan: subscanClient,
	}
}

func nodeDialer(cfg *config.Config, logger *slog.Logger) chain.Dialer {
	return substrate.Dialer(cfg.Chain.Endpoint, substrate.NodeOptions{
		DialTimeout: cfg.Chain.DialTimeout,
		CallTimeout: cfg.Chain.CallTimeout,
		Logger:      logger,
		Builder: substrate.BuilderOptions{
			AffiliateCall:  cfg.Chain.AffiliateCall,
			BatchCall:      cfg.Chain.BatchCall,
			MaxChainLength: cfg.Pipeline.AffiliateMaxLevel,
		},
	})
}

func subscanClient(cfg *config.Config, logger *slog.Logger) subscanAPI {
	return subscan.NewClient(subscan.Options{
		BaseURL:     cfg.Subscan.BaseURL,
		APIKey:      cfg.Subscan.APIKey,
		Timeout:     cfg.Subscan.Timeout,
		RPS:         cfg.Subscan.RPS,
		Burst:       cfg.Subscan.Burst,
		MaxAttempts: cfg.Subscan.MaxAttempts,
		Logger:      logger,

		BreakerThreshold:   cfg.Subscan.BreakerThreshold,
		BreakerOpenTimeout: cfg.Subscan.BreakerOpenTimeout,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newApp(os.Stdout), os.Args[1:])
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, a *app, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.out)

	if err := root.ExecuteContext(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error("affiliatefix failed", "error", err)
		} else {
			fmt.Fprintf(a.out, "affiliatefix: %v\n", err)
		}
		return 1
	}
	return 0
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "affiliatefix",
		Short:         "Rebuild affiliate chains and encode force-set batch calls",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	a.flags.register(root)

	root.AddCommand(
		a.eventIDsCommand(),
		a.eventAccountsCommand(),
		a.chainsCommand(),
		a.transactionsCommand(),
		a.allCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.flags.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	a.cfg = cfg
	a.runID = uuid.NewString()
	a.logger = newLogger(a.out, cfg.Log.Level).With("run_id", a.runID, "network", cfg.Chain.Network.String())
	slog.SetDefault(a.logger)
	return nil
}

// overrides are command-line values applied on top of the loaded config.
type overrides struct {
	network          string
	endpoint         string
	expectedGenesis  string
	batchSize        int
	maxLevel         int
	quoteMode        string
	duplicatePolicy  string
	eventIDsFile     string
	eventAccounts    string
	affiliateeChains string
	encodedCalls     string
}

func (o *overrides) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.network, "network", "", "target network (bajun, ajuna)")
	f.StringVar(&o.endpoint, "endpoint", "", "node websocket endpoint")
	f.StringVar(&o.expectedGenesis, "expected-genesis", "", "refuse to encode unless the node reports this genesis hash")
	f.IntVar(&o.batchSize, "batch-size", 0, "calls per batch_all")
	f.IntVar(&o.maxLevel, "max-level", 0, "maximum affiliator chain length")
	f.StringVar(&o.quoteMode, "quote-mode", "", "affiliatee chains quoting (rfc4180, strip)")
	f.StringVar(&o.duplicatePolicy, "duplicate-policy", "", "duplicate affiliate rows (last-write-wins, reject)")
	f.StringVar(&o.eventIDsFile, "event-ids-file", "", "event ids CSV")
	f.StringVar(&o.eventAccounts, "event-accounts-file", "", "event accounts CSV")
	f.StringVar(&o.affiliateeChains, "chains-file", "", "affiliatee chains CSV")
	f.StringVar(&o.encodedCalls, "output", "", "encoded batch output file")
}

func (o *overrides) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("network") {
		cfg.SetNetwork(model.Network(strings.ToLower(o.network)))
	}
	if changed("endpoint") {
		cfg.Chain.Endpoint = o.endpoint
	}
	if changed("expected-genesis") {
		cfg.Chain.ExpectedGenesis = o.expectedGenesis
	}
	if changed("batch-size") {
		cfg.Pipeline.BatchSize = o.batchSize
	}
	if changed("max-level") {
		cfg.Pipeline.AffiliateMaxLevel = o.maxLevel
	}
	if changed("quote-mode") {
		cfg.Pipeline.QuoteMode = strings.ToLower(o.quoteMode)
	}
	if changed("duplicate-policy") {
		cfg.Pipeline.DuplicatePolicy = model.DuplicatePolicy(strings.ToLower(o.duplicatePolicy))
	}
	if changed("event-ids-file") {
		cfg.Files.EventIDs = o.eventIDsFile
	}
	if changed("event-accounts-file") {
		cfg.Files.EventAccounts = o.eventAccounts
	}
	if changed("chains-file") {
		cfg.Files.AffiliateeChains = o.affiliateeChains
	}
	if changed("output") {
		cfg.Files.EncodedCalls = o.encodedCalls
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// stageFunc runs one command and returns summary fields for the run alert.
type stageFunc func(ctx context.Context) (map[string]string, error)

// run wraps a command with tracing, run metrics, the run alert and the
// metrics textfile dump.
func (a *app) run(ctx context.Context, command string, fn stageFunc) error {
	tracingEndpoint := ""
	if a.cfg.Tracing.Enabled {
		tracingEndpoint = a.cfg.Tracing.Endpoint
	}
	shutdown, err := tracing.Init(ctx, serviceName, tracingEndpoint, a.cfg.Tracing.Insecure)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			a.logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	logger := a.logger.With("command", command)
	logger.Info("run started")
	started := time.Now()

	fields, runErr := fn(ctx)

	outcome := "success"
	alertType := alert.AlertTypeRunSucceeded
	title := "affiliate fix completed"
	message := fmt.Sprintf("%s finished in %s", command, time.Since(started).Round(time.Millisecond))
	if runErr != nil {
		outcome = "failure"
		alertType = alert.AlertTypeRunFailed
		title = "affiliate fix failed"
		message = runErr.Error()
	} else {
		logger.Info("run completed", "duration", time.Since(started))
	}
	metrics.RunsTotal.WithLabelValues(command, outcome).Inc()

	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	alerter := alert.New(alert.Config{
		SlackWebhookURL: a.cfg.Alert.SlackWebhookURL,
		WebhookURL:      a.cfg.Alert.WebhookURL,
	}, logger)
	if err := alerter.Send(alertCtx, alert.Alert{
		Type:    alertType,
		Network: a.cfg.Chain.Network.String(),
		Command: command,
		RunID:   a.runID,
		Title:   title,
		Message: message,
		Fields:  fields,
	}); err != nil {
		logger.Warn("run alert not delivered", "error", err)
	}

	if err := metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
		logger.Warn("metrics textfile not written", "error", err)
	}
	return runErr
}

func (a *app) eventIDs(ctx context.Context) (map[string]string, error) {
	client := a.newSubscan(a.cfg, a.logger)
	ids, err := affiliation.CollectEventIDs(ctx, client, a.cfg.Subscan.EventID, a.cfg.Subscan.PageSize, a.logger)
	if err != nil {
		return nil, err
	}
	if err := csvio.WriteEventIDs(a.cfg.Files.EventIDs, ids); err != nil {
		return nil, err
	}
	a.logger.Info("event ids written", "path", a.cfg.Files.EventIDs, "events", len(ids))
	return map[string]string{"events": strconv.Itoa(len(ids))}, nil
}

func (a *app) eventAccounts(ctx context.Context) (map[string]string, error) {
	ids, err := csvio.ReadEventIDs(a.cfg.Files.EventIDs)
	if err != nil {
		return nil, err
	}
	client := a.newSubscan(a.cfg, a.logger)
	events, err := affiliation.ResolveEventAccounts(ctx, client, ids, a.cfg.Subscan.Workers, a.logger)
	if err != nil {
		return nil, err
	}
	metrics.EventsResolvedTotal.WithLabelValues(a.cfg.Chain.Network.String()).Add(float64(len(events)))

	if err := csvio.WriteEventAccounts(a.cfg.Files.EventAccounts, events); err != nil {
		return nil, err
	}
	a.logger.Info("event accounts written", "path", a.cfg.Files.EventAccounts, "events", len(events))
	return map[string]string{"events": strconv.Itoa(len(events))}, nil
}

func (a *app) chains(_ context.Context) (map[string]string, error) {
	events, err := csvio.ReadEventAccounts(a.cfg.Files.EventAccounts)
	if err != nil {
		return nil, err
	}
	table, truncated := affiliation.BuildChains(events, a.cfg.Pipeline.AffiliateMaxLevel)
	metrics.ChainsTruncatedTotal.WithLabelValues(a.cfg.Chain.Network.String()).Add(float64(truncated))

	if err := csvio.WriteAffiliateeChains(a.cfg.Files.AffiliateeChains, table); err != nil {
		return nil, err
	}
	a.logger.Info("affiliatee chains written",
		"path", a.cfg.Files.AffiliateeChains,
		"affiliatees", table.Len(),
		"truncated", truncated,
	)
	return map[string]string{
		"affiliatees": strconv.Itoa(table.Len()),
		"truncated":   strconv.Itoa(truncated),
	}, nil
}

func (a *app) transactions(ctx context.Context) (map[string]string, error) {
	p := pipeline.New(pipeline.Config{
		Network:         a.cfg.Chain.Network,
		InputPath:       a.cfg.Files.AffiliateeChains,
		OutputPath:      a.cfg.Files.EncodedCalls,
		BatchSize:       a.cfg.Pipeline.BatchSize,
		QuoteMode:       csvio.QuoteMode(a.cfg.Pipeline.QuoteMode),
		DuplicatePolicy: a.cfg.Pipeline.DuplicatePolicy,
		ExpectedGenesis: a.cfg.Chain.ExpectedGenesis,
	}, a.newDialer(a.cfg, a.logger), a.logger)

	result, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"genesis":    result.Genesis,
		"affiliates": strconv.Itoa(result.Affiliates),
		"batches":    strconv.Itoa(result.Batches),
	}, nil
}

func (a *app) all(ctx context.Context) (map[string]string, error) {
	fields := map[string]string{}
	for _, stage := range []struct {
		name string
		fn   stageFunc
	}{
		{"event-ids", a.eventIDs},
		{"event-accounts", a.eventAccounts},
		{"chains", a.chains},
		{"transactions", a.transactions},
	} {
		stageFields, err := stage.fn(ctx)
		if err != nil {
			return fields, fmt.Errorf("%s: %w", stage.name, err)
		}
		for k, v := range stageFields {
			fields[stage.name+"."+k] = v
		}
	}
	return fields, nil
}

func (a *app) eventIDsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "event-ids",
		Short: "Collect affiliation event ids from Subscan, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), "event-ids", a.eventIDs)
		},
	}
}

func (a *app) eventAccountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "event-accounts",
		Short: "Resolve each affiliation event into its affiliatee and affiliator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), "event-accounts", a.eventAccounts)
		},
	}
}

func (a *app) chainsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "Rebuild affiliatee chains from the ordered event accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), "chains", a.chains)
		},
	}
}

func (a *app) transactionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transactions",
		Short: "Encode force_set_affiliatee_state calls into batch_all extrinsics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), "transactions", a.transactions)
		},
	}
}

func (a *app) allCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run every stage in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), "all", a.all)
		},
	}
}
