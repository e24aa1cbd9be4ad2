package model

// DefaultBatchSize is the number of calls wrapped in one batch_all extrinsic.
const DefaultBatchSize = 100

// EncodedBatch is the hex encoding of one unsigned extrinsic carrying a
// batch_all of affiliatee state calls.
type EncodedBatch string

func (b EncodedBatch) String() string {
	return string(b)
}
