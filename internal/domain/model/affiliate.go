package model

// AffiliateRecord is one parsed row of the affiliatee chains file.
type AffiliateRecord struct {
	Account string
	Chain   []string
}

// DuplicatePolicy decides what happens when an affiliate id appears twice.
type DuplicatePolicy string

const (
	DuplicateLastWriteWins DuplicatePolicy = "last-write-wins"
	DuplicateReject        DuplicatePolicy = "reject"
)

func (p DuplicatePolicy) String() string {
	return string(p)
}

// Valid reports whether p is a known policy.
func (p DuplicatePolicy) Valid() bool {
	switch p {
	case DuplicateLastWriteWins, DuplicateReject:
		return true
	default:
		return false
	}
}

// AffiliateTable maps affiliate accounts to their affiliated chain accounts.
// Keys iterate in first-insertion order; Put on an existing key replaces the
// value without moving the key.
type AffiliateTable struct {
	keys   []string
	chains map[string][]string
}

func NewAffiliateTable() *AffiliateTable {
	return &AffiliateTable{chains: make(map[string][]string)}
}

// Put stores chain for account and reports whether account was already present.
func (t *AffiliateTable) Put(account string, chain []string) bool {
	_, exists := t.chains[account]
	if !exists {
		t.keys = append(t.keys, account)
	}
	t.chains[account] = append([]string(nil), chain...)
	return exists
}

func (t *AffiliateTable) Get(account string) ([]string, bool) {
	chain, ok := t.chains[account]
	if !ok {
		return nil, false
	}
	return append([]string(nil), chain...), true
}

func (t *AffiliateTable) Has(account string) bool {
	_, ok := t.chains[account]
	return ok
}

func (t *AffiliateTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the accounts in iteration order.
func (t *AffiliateTable) Keys() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.keys...)
}

// Records returns the table contents in iteration order.
func (t *AffiliateTable) Records() []AffiliateRecord {
	if t == nil {
		return nil
	}
	records := make([]AffiliateRecord, 0, len(t.keys))
	for _, key := range t.keys {
		records = append(records, AffiliateRecord{
			Account: key,
			Chain:   append([]string(nil), t.chains[key]...),
		})
	}
	return records
}
