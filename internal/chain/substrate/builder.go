package substrate

import (
	"errors"
	"fmt"

	"github.com/ajuna-network/affiliate-fix/internal/chain"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

// CallIndexResolver maps "Pallet.call" names to call indices.
// *types.Metadata satisfies it.
type CallIndexResolver interface {
	FindCallIndex(call string) (types.CallIndex, error)
}

type BuilderOptions struct {
	AffiliateCall string
	BatchCall     string
	// MaxChainLength rejects longer chains when > 0.
	MaxChainLength int
}

// Builder constructs affiliate repair calls for one runtime version.
type Builder struct {
	affiliateCall  string
	batchCall      string
	maxChainLength int

	affiliateIndex types.CallIndex
	batchIndex     types.CallIndex
}

var _ chain.CallBuilder = (*Builder)(nil)

func NewBuilder(resolver CallIndexResolver, opts BuilderOptions) (*Builder, error) {
	if resolver == nil {
		return nil, errors.New("nil call index resolver")
	}

	affiliateIndex, err := resolver.FindCallIndex(opts.AffiliateCall)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", opts.AffiliateCall, err)
	}
	batchIndex, err := resolver.FindCallIndex(opts.BatchCall)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", opts.BatchCall, err)
	}

	return &Builder{
		affiliateCall:  opts.AffiliateCall,
		batchCall:      opts.BatchCall,
		maxChainLength: opts.MaxChainLength,
		affiliateIndex: affiliateIndex,
		batchIndex:     batchIndex,
	}, nil
}

// ForceSetAffiliateeState encodes force_set_affiliatee_state(account, chain).
func (b *Builder) ForceSetAffiliateeState(account string, affiliators []string) (chain.Call, error) {
	if b.maxChainLength > 0 && len(affiliators) > b.maxChainLength {
		return chain.Call{}, fmt.Errorf("chain of %s has %d accounts, max %d", account, len(affiliators), b.maxChainLength)
	}

	target, err := accountID(account)
	if err != nil {
		return chain.Call{}, err
	}
	chainIDs := make([]types.AccountID, 0, len(affiliators))
	for _, a := range affiliators {
		id, err := accountID(a)
		if err != nil {
			return chain.Call{}, fmt.Errorf("chain of %s: %w", account, err)
		}
		chainIDs = append(chainIDs, id)
	}

	args, err := codec.Encode(target)
	if err != nil {
		return chain.Call{}, fmt.Errorf("encode account: %w", err)
	}
	encodedChain, err := codec.Encode(chainIDs)
	if err != nil {
		return chain.Call{}, fmt.Errorf("encode chain: %w", err)
	}
	args = append(args, encodedChain...)

	return b.encodeCall(b.affiliateCall, b.affiliateIndex, args)
}

// BatchAll encodes Utility.batch_all(calls).
func (b *Builder) BatchAll(calls []chain.Call) (chain.Call, error) {
	if len(calls) == 0 {
		return chain.Call{}, errors.New("batch of zero calls")
	}

	args, err := codec.Encode(types.NewUCompactFromUInt(uint64(len(calls))))
	if err != nil {
		return chain.Call{}, fmt.Errorf("encode batch length: %w", err)
	}
	for i, c := range calls {
		if len(c.Encoded) < 2 {
			return chain.Call{}, fmt.Errorf("batch call %d (%s) is not encoded", i, c.Name)
		}
		args = append(args, c.Encoded...)
	}

	return b.encodeCall(b.batchCall, b.batchIndex, args)
}

// EncodeHex wraps call in an unsigned v4 extrinsic.
func (b *Builder) EncodeHex(call chain.Call) (string, error) {
	if len(call.Encoded) < 2 {
		return "", fmt.Errorf("call %s is not encoded", call.Name)
	}

	ext := types.NewExtrinsic(types.Call{
		CallIndex: types.CallIndex{SectionIndex: call.Encoded[0], MethodIndex: call.Encoded[1]},
		Args:      types.Args(call.Encoded[2:]),
	})
	encoded, err := codec.EncodeToHex(ext)
	if err != nil {
		return "", fmt.Errorf("encode extrinsic %s: %w", call.Name, err)
	}
	return encoded, nil
}

func (b *Builder) encodeCall(name string, index types.CallIndex, args []byte) (chain.Call, error) {
	encoded, err := codec.Encode(types.Call{CallIndex: index, Args: args})
	if err != nil {
		return chain.Call{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return chain.Call{Name: name, Encoded: encoded}, nil
}

func accountID(address string) (types.AccountID, error) {
	raw, err := DecodeAccountID(address)
	if err != nil {
		return types.AccountID{}, err
	}
	id, err := types.NewAccountID(raw)
	if err != nil {
		return types.AccountID{}, fmt.Errorf("account %q: %w", address, err)
	}
	return *id, nil
}
