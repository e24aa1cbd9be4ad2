package affiliation

import "github.com/ajuna-network/affiliate-fix/internal/domain/model"

// BuildChains replays affiliation events in order. The chain of an
// affiliatee is its affiliator followed by the affiliator's own chain,
// cut to maxLevel by dropping the most distant ancestor. A later event for
// the same affiliatee replaces its chain but keeps its position.
//
// It returns the table and the number of chains that were cut.
func BuildChains(events []model.EventAccount, maxLevel int) (*model.AffiliateTable, int) {
	table := model.NewAffiliateTable()
	truncated := 0

	for _, e := range events {
		parent, _ := table.Get(e.Affiliator)
		if maxLevel > 0 && len(parent) >= maxLevel {
			parent = parent[:maxLevel-1]
			truncated++
		}

		chain := make([]string, 0, len(parent)+1)
		chain = append(chain, e.Affiliator)
		chain = append(chain, parent...)
		table.Put(e.Affiliatee, chain)
	}
	return table, truncated
}
