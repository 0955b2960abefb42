package view

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/subguard/internal/client/models"
)

func amount(v uint64) *uint64 { return &v }

func TestDerive_SearchScenario(t *testing.T) {
	records := []models.Record{
		{ID: "sub-1", Name: "Netflix", Status: models.StatusActive},
		{ID: "sub-2", Name: "Spotify", Status: models.StatusActive},
	}

	p := Derive(records, "net", 1, 6)

	require.Len(t, p.Items, 1)
	assert.Equal(t, "sub-1", p.Items[0].ID)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 2, p.Summary.Total, "summary covers the unfiltered set")
}

func TestDerive_MatchesIDCaseInsensitive(t *testing.T) {
	records := []models.Record{
		{ID: "sub-ABC", Name: "Gym"},
		{ID: "sub-2", Name: "Cloud"},
	}

	p := Derive(records, "abc", 1, 6)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "sub-ABC", p.Items[0].ID)
}

func TestDerive_Pagination(t *testing.T) {
	var records []models.Record
	for i := 1; i <= 14; i++ {
		records = append(records, models.Record{ID: fmt.Sprintf("sub-%d", i), Name: "x"})
	}

	p1 := Derive(records, "", 1, 6)
	p3 := Derive(records, "", 3, 6)
	p4 := Derive(records, "", 4, 6)

	assert.Equal(t, 3, p1.TotalPages)
	assert.Len(t, p1.Items, 6)
	assert.Equal(t, "sub-1", p1.Items[0].ID)
	assert.Len(t, p3.Items, 2)
	assert.Equal(t, "sub-13", p3.Items[0].ID)
	assert.Empty(t, p4.Items)
}

func TestDerive_EmptySet(t *testing.T) {
	p := Derive(nil, "", 1, 6)
	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.TotalPages)
	assert.Equal(t, Summary{}, p.Summary)
}

func TestSummary_ExcludesUnverified(t *testing.T) {
	records := []models.Record{
		{ID: "a", Status: models.StatusActive, IsVerified: true, PlainAmount: amount(10)},
		{ID: "b", Status: models.StatusActive, IsVerified: true, PlainAmount: amount(5)},
		// cached plaintext guess on an unverified record must not count
		{ID: "c", Status: models.StatusActive, IsVerified: false, PlainAmount: amount(1000)},
	}

	s := Derive(records, "", 1, 6).Summary

	assert.Equal(t, Summary{Total: 3, Active: 3, Verified: 2, TotalRevealed: 15}, s)
}

func TestDerive_Pure(t *testing.T) {
	records := []models.Record{
		{ID: "sub-1", Name: "Netflix", Status: models.StatusActive, IsVerified: true, PlainAmount: amount(9)},
		{ID: "sub-2", Name: "Spotify", Status: models.StatusActive},
	}
	before := append([]models.Record(nil), records...)

	first := Derive(records, "", 1, 6)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, Derive(records, "", 1, 6)); diff != "" {
			t.Fatalf("derive is not deterministic (-first +again):\n%s", diff)
		}
	}
	assert.Empty(t, cmp.Diff(before, records), "input must not be mutated")

	first.Items[0].Name = "changed"
	assert.Equal(t, "Netflix", records[0].Name, "page items are copies")
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 3, ClampPage(7, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 1, ClampPage(5, 0))
}
