//go:generate mockgen -destination=mocks/mock_adapter.go -package=mocks . CallBuilder,Node

package chain

import "context"

// Call is the SCALE encoding of a runtime call: the two-byte call index
// followed by the encoded arguments.
type Call struct {
	Name    string
	Encoded []byte
}

// CallBuilder constructs chain-specific calls without submitting them.
type CallBuilder interface {
	// ForceSetAffiliateeState builds the root call that overwrites the
	// affiliated chain of account.
	ForceSetAffiliateeState(account string, affiliators []string) (Call, error)

	// BatchAll wraps calls into a single all-or-nothing batch call.
	BatchAll(calls []Call) (Call, error)

	// EncodeHex returns the 0x-prefixed hex encoding of call wrapped as an
	// unsigned extrinsic, ready for an external signing step.
	EncodeHex(call Call) (string, error)
}

// Node is a live connection to a chain node.
type Node interface {
	// GenesisHash returns the 0x-prefixed genesis block hash.
	GenesisHash(ctx context.Context) (string, error)

	// CallBuilder returns a builder bound to the node's current runtime metadata.
	CallBuilder(ctx context.Context) (CallBuilder, error)

	Close() error
}

// Dialer opens a Node connection.
type Dialer func(ctx context.Context) (Node, error)
