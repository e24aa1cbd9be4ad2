package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffiliateTable_InsertionOrder(t *testing.T) {
	table := NewAffiliateTable()
	assert.False(t, table.Put("carol", nil))
	assert.False(t, table.Put("alice", []string{"chainA"}))
	assert.False(t, table.Put("bob", []string{"chainC"}))

	assert.Equal(t, []string{"carol", "alice", "bob"}, table.Keys())
	assert.Equal(t, 3, table.Len())
}

func TestAffiliateTable_DuplicateKeepsPositionTakesLastValue(t *testing.T) {
	table := NewAffiliateTable()
	table.Put("alice", []string{"old"})
	table.Put("bob", nil)
	assert.True(t, table.Put("alice", []string{"new1", "new2"}))

	assert.Equal(t, []string{"alice", "bob"}, table.Keys())
	chain, ok := table.Get("alice")
	require.True(t, ok)
	assert.Equal(t, []string{"new1", "new2"}, chain)
}

func TestAffiliateTable_ValuesAreCopied(t *testing.T) {
	src := []string{"chainA"}
	table := NewAffiliateTable()
	table.Put("alice", src)
	src[0] = "mutated"

	chain, _ := table.Get("alice")
	assert.Equal(t, []string{"chainA"}, chain)

	chain[0] = "mutated-again"
	again, _ := table.Get("alice")
	assert.Equal(t, []string{"chainA"}, again)
}

func TestAffiliateTable_Records(t *testing.T) {
	table := NewAffiliateTable()
	table.Put("alice", []string{"chainA", "chainB"})
	table.Put("bob", []string{"chainC"})

	assert.Equal(t, []AffiliateRecord{
		{Account: "alice", Chain: []string{"chainA", "chainB"}},
		{Account: "bob", Chain: []string{"chainC"}},
	}, table.Records())
}

func TestAffiliateTable_NilSafe(t *testing.T) {
	var table *AffiliateTable
	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Keys())
	assert.Nil(t, table.Records())
}

func TestDuplicatePolicy_Valid(t *testing.T) {
	assert.True(t, DuplicateLastWriteWins.Valid())
	assert.True(t, DuplicateReject.Valid())
	assert.False(t, DuplicatePolicy("first-write-wins").Valid())
	assert.Equal(t, "reject", DuplicateReject.String())
}
