package pipeline

import (
	"context"
	"fmt"

	"github.com/ajuna-network/affiliate-fix/internal/chain"
	"github.com/ajuna-network/affiliate-fix/internal/domain/model"
)

// BuildBatches builds one force-set call per table entry, in table order,
// and groups them into batch_all calls of at most batchSize calls. Only the
// last batch may be short; no batch is empty.
func BuildBatches(ctx context.Context, table *model.AffiliateTable, builder chain.CallBuilder, batchSize int) ([]model.EncodedBatch, error) {
	if batchSize <= 0 {
		batchSize = model.DefaultBatchSize
	}

	var (
		batches []model.EncodedBatch
		pending = make([]chain.Call, 0, batchSize)
	)

	flush := func() error {
		batch, err := builder.BatchAll(pending)
		if err != nil {
			return fmt.Errorf("%w: batch %d: %w", model.ErrCallConstruction, len(batches), err)
		}
		encoded, err := builder.EncodeHex(batch)
		if err != nil {
			return fmt.Errorf("%w: encode batch %d: %w", model.ErrCallConstruction, len(batches), err)
		}
		batches = append(batches, model.EncodedBatch(encoded))
		pending = make([]chain.Call, 0, batchSize)
		return nil
	}

	for _, record := range table.Records() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		call, err := builder.ForceSetAffiliateeState(record.Account, record.Chain)
		if err != nil {
			return nil, fmt.Errorf("%w: affiliate %s: %w", model.ErrCallConstruction, record.Account, err)
		}
		pending = append(pending, call)

		if len(pending) == batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if len(pending) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return batches, nil
}

// batchSizes returns the call count of each batch BuildBatches emits for
// calls entries.
func batchSizes(calls, batchSize int) []int {
	if batchSize <= 0 {
		batchSize = model.DefaultBatchSize
	}
	sizes := make([]int, 0, calls/batchSize+1)
	for calls > 0 {
		n := min(calls, batchSize)
		sizes = append(sizes, n)
		calls -= n
	}
	return sizes
}
