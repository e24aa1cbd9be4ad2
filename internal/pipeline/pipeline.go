package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ajuna-network/affiliate-fix/internal/chain"
	"github.com/ajuna-network/affiliate-fix/internal/csvio"
	"github.com/ajuna-network/affiliate-fix/internal/domain/model"
	"github.com/ajuna-network/affiliate-fix/internal/metrics"
	"github.com/ajuna-network/affiliate-fix/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
)

type Config struct {
	Network         model.Network
	InputPath       string
	OutputPath      string
	BatchSize       int
	QuoteMode       csvio.QuoteMode
	DuplicatePolicy model.DuplicatePolicy
	// ExpectedGenesis aborts the run when the node reports another genesis hash.
	ExpectedGenesis string
}

// Result summarises a completed run.
type Result struct {
	Genesis    string
	Affiliates int
	Batches    int
}

// Pipeline turns an affiliatee chains file into encoded batch calls.
type Pipeline struct {
	cfg    Config
	dial   chain.Dialer
	logger *slog.Logger
}

func New(cfg Config, dial chain.Dialer, logger *slog.Logger) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = model.DefaultBatchSize
	}
	return &Pipeline{
		cfg:    cfg,
		dial:   dial,
		logger: logger.With("component", "pipeline", "network", cfg.Network.String()),
	}
}

// Run loads the table, connects to the node, builds the batches and writes
// them out. The node connection is closed on every path after it was opened.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	network := p.cfg.Network.String()
	ctx, finish := tracing.StartStage(ctx, "transactions", attribute.String("network", network))

	result, err := p.run(ctx)
	if err != nil {
		metrics.CallErrors.WithLabelValues(network).Inc()
	}
	finish(err)
	return result, err
}

func (p *Pipeline) run(ctx context.Context) (*Result, error) {
	network := p.cfg.Network.String()

	table, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	metrics.AffiliatesLoaded.WithLabelValues(network).Set(float64(table.Len()))
	p.logger.Info("affiliates loaded", "path", p.cfg.InputPath, "affiliates", table.Len())

	node, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := node.Close(); cerr != nil {
			p.logger.Warn("close chain connection", "error", cerr)
		}
	}()

	genesis, err := node.GenesisHash(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: genesis hash: %w", model.ErrConnection, err)
	}
	p.logger.Info("connected to chain", "genesis", genesis)
	if want := p.cfg.ExpectedGenesis; want != "" && !strings.EqualFold(want, genesis) {
		return nil, fmt.Errorf("%w: node reports %s, expected %s", model.ErrGenesisMismatch, genesis, want)
	}

	batches, err := p.build(ctx, node, table)
	if err != nil {
		return nil, err
	}

	if err := p.write(ctx, batches); err != nil {
		return nil, err
	}
	p.logger.Info("encoded batches written",
		"path", p.cfg.OutputPath,
		"affiliates", table.Len(),
		"batches", len(batches),
	)

	return &Result{Genesis: genesis, Affiliates: table.Len(), Batches: len(batches)}, nil
}

func (p *Pipeline) load(ctx context.Context) (table *model.AffiliateTable, err error) {
	_, finish := tracing.StartStage(ctx, "load", attribute.String("path", p.cfg.InputPath))
	defer func() { finish(err) }()

	return csvio.LoadAffiliates(p.cfg.InputPath, csvio.LoadOptions{
		QuoteMode:       p.cfg.QuoteMode,
		DuplicatePolicy: p.cfg.DuplicatePolicy,
	})
}

func (p *Pipeline) connect(ctx context.Context) (node chain.Node, err error) {
	ctx, finish := tracing.StartStage(ctx, "connect")
	defer func() { finish(err) }()

	node, err = p.dial(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrConnection, err)
	}
	return node, nil
}

func (p *Pipeline) build(ctx context.Context, node chain.Node, table *model.AffiliateTable) (batches []model.EncodedBatch, err error) {
	ctx, finish := tracing.StartStage(ctx, "build", attribute.Int("affiliates", table.Len()))
	defer func() { finish(err) }()

	builder, err := node.CallBuilder(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load runtime metadata: %w", model.ErrConnection, err)
	}

	batches, err = BuildBatches(ctx, table, builder, p.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	network := p.cfg.Network.String()
	metrics.CallsBuiltTotal.WithLabelValues(network).Add(float64(table.Len()))
	metrics.BatchesEmittedTotal.WithLabelValues(network).Add(float64(len(batches)))
	for _, n := range batchSizes(table.Len(), p.cfg.BatchSize) {
		metrics.BatchCalls.WithLabelValues(network).Observe(float64(n))
	}
	return batches, nil
}

func (p *Pipeline) write(ctx context.Context, batches []model.EncodedBatch) (err error) {
	_, finish := tracing.StartStage(ctx, "write", attribute.String("path", p.cfg.OutputPath))
	defer func() { finish(err) }()

	return csvio.WriteBatches(p.cfg.OutputPath, batches)
}
