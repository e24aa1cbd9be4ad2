package substrate

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/ajuna-network/affiliate-fix/internal/chain"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver map[string]types.CallIndex

func (f fakeResolver) FindCallIndex(call string) (types.CallIndex, error) {
	idx, ok := f[call]
	if !ok {
		return types.CallIndex{}, fmt.Errorf("module/call %s not found", call)
	}
	return idx, nil
}

var testOptions = BuilderOptions{
	AffiliateCall: "AwesomeAvatars.force_set_affiliatee_state",
	BatchCall:     "Utility.batch_all",
}

func newTestBuilder(t *testing.T, maxChain int) *Builder {
	t.Helper()
	opts := testOptions
	opts.MaxChainLength = maxChain
	b, err := NewBuilder(fakeResolver{
		"AwesomeAvatars.force_set_affiliatee_state": {SectionIndex: 0x06, MethodIndex: 0x14},
		"Utility.batch_all":                         {SectionIndex: 0x28, MethodIndex: 0x02},
	}, opts)
	require.NoError(t, err)
	return b
}

func TestBuilder_ForceSetAffiliateeState(t *testing.T) {
	b := newTestBuilder(t, 0)

	call, err := b.ForceSetAffiliateeState(aliceSS58, []string{bobSS58})
	require.NoError(t, err)
	assert.Equal(t, "AwesomeAvatars.force_set_affiliatee_state", call.Name)
	assert.Equal(t, "0614"+aliceHex+"04"+bobHex, hex.EncodeToString(call.Encoded))

	call, err = b.ForceSetAffiliateeState("0x"+bobHex, nil)
	require.NoError(t, err)
	assert.Equal(t, "0614"+bobHex+"00", hex.EncodeToString(call.Encoded))
}

func TestBuilder_ForceSetAffiliateeState_Errors(t *testing.T) {
	b := newTestBuilder(t, 2)

	_, err := b.ForceSetAffiliateeState("alice", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAddress))

	_, err = b.ForceSetAffiliateeState(aliceSS58, []string{bobSS58, "chainA"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain of "+aliceSS58)

	_, err = b.ForceSetAffiliateeState(aliceSS58, []string{bobSS58, bobSS58, bobSS58})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max 2")
}

func TestBuilder_BatchAllAndEncodeHex(t *testing.T) {
	b := newTestBuilder(t, 0)

	single, err := b.ForceSetAffiliateeState(bobSS58, nil)
	require.NoError(t, err)

	batch, err := b.BatchAll([]chain.Call{single})
	require.NoError(t, err)
	assert.Equal(t, "Utility.batch_all", batch.Name)
	assert.Equal(t, "2802"+"04"+"0614"+bobHex+"00", hex.EncodeToString(batch.Encoded))

	// 39 byte body: compact length 0x9c, then unsigned v4 version byte.
	encoded, err := b.EncodeHex(batch)
	require.NoError(t, err)
	assert.Equal(t, "0x9c04"+"2802"+"04"+"0614"+bobHex+"00", encoded)
}

func TestBuilder_BatchAllTwoCalls(t *testing.T) {
	b := newTestBuilder(t, 0)

	first, err := b.ForceSetAffiliateeState(aliceSS58, []string{bobSS58})
	require.NoError(t, err)
	second, err := b.ForceSetAffiliateeState(bobSS58, nil)
	require.NoError(t, err)

	batch, err := b.BatchAll([]chain.Call{first, second})
	require.NoError(t, err)
	assert.Equal(t, "2802"+"08"+hex.EncodeToString(first.Encoded)+hex.EncodeToString(second.Encoded),
		hex.EncodeToString(batch.Encoded))

	// 106 byte body needs the two-byte compact form.
	encoded, err := b.EncodeHex(batch)
	require.NoError(t, err)
	assert.Equal(t, "0xa90104"+hex.EncodeToString(batch.Encoded), encoded)
}

func TestBuilder_BatchAll_Errors(t *testing.T) {
	b := newTestBuilder(t, 0)

	_, err := b.BatchAll(nil)
	require.Error(t, err)

	_, err = b.BatchAll([]chain.Call{{Name: "broken"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	_, err = b.EncodeHex(chain.Call{Name: "empty"})
	require.Error(t, err)
}

func TestNewBuilder_UnknownCall(t *testing.T) {
	_, err := NewBuilder(fakeResolver{
		"Utility.batch_all": {SectionIndex: 0x28, MethodIndex: 0x02},
	}, testOptions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve AwesomeAvatars.force_set_affiliatee_state")

	_, err = NewBuilder(nil, testOptions)
	require.Error(t, err)
}
