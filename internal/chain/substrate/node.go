package substrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ajuna-network/affiliate-fix/internal/chain"
	"github.com/ajuna-network/affiliate-fix/internal/chain/substrate/rpc"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

type NodeOptions struct {
	DialTimeout time.Duration
	CallTimeout time.Duration
	Builder     BuilderOptions
	Logger      *slog.Logger
}

// Node is a Substrate node reached over websocket JSON-RPC.
type Node struct {
	client  rpc.RPCClient
	builder BuilderOptions
	logger  *slog.Logger
}

var _ chain.Node = (*Node)(nil)

func Dial(ctx context.Context, endpoint string, opts NodeOptions) (*Node, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	client, err := rpc.Dial(ctx, endpoint, rpc.Options{
		DialTimeout: opts.DialTimeout,
		CallTimeout: opts.CallTimeout,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return newNode(client, opts), nil
}

// Dialer adapts Dial to chain.Dialer.
func Dialer(endpoint string, opts NodeOptions) chain.Dialer {
	return func(ctx context.Context) (chain.Node, error) {
		return Dial(ctx, endpoint, opts)
	}
}

func newNode(client rpc.RPCClient, opts NodeOptions) *Node {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{
		client:  client,
		builder: opts.Builder,
		logger:  logger.With("component", "substrate_node"),
	}
}

func (n *Node) GenesisHash(ctx context.Context) (string, error) {
	return n.client.GetGenesisHash(ctx)
}

// CallBuilder fetches the current runtime metadata and returns a builder
// bound to its call indices.
func (n *Node) CallBuilder(ctx context.Context) (chain.CallBuilder, error) {
	version, err := n.client.GetRuntimeVersion(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := n.client.GetMetadata(ctx)
	if err != nil {
		return nil, err
	}
	var meta types.Metadata
	if err := codec.DecodeFromHex(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	n.logger.Info("runtime metadata loaded",
		"spec_name", version.SpecName,
		"spec_version", version.SpecVersion,
		"transaction_version", version.TransactionVersion,
		"metadata_version", meta.Version,
	)
	return NewBuilder(&meta, n.builder)
}

func (n *Node) Close() error {
	return n.client.Close()
}
