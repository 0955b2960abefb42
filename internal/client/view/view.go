// Package view projects the canonical record set into what a list screen
// shows: a filtered page plus summary statistics. Everything here is pure.
package view

import (
	"strings"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/common"
)

// Summary aggregates over the whole (unfiltered) record set.
type Summary struct {
	Total    int
	Active   int
	Verified int
	// TotalRevealed sums verified plaintext amounts only.
	TotalRevealed uint64
}

// Page is one screenful of the filtered record set.
type Page struct {
	Items      []models.Record
	Page       int
	TotalPages int
	Matched    int
	Summary    Summary
}

// Derive filters records by search (case-insensitive substring of name or id),
// cuts out page pageIndex (1-based) of size pageSize and summarizes records.
// A pageIndex beyond the last page yields an empty Items slice.
func Derive(records []models.Record, search string, pageIndex, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = common.DefaultPageSize
	}
	if pageIndex < 1 {
		pageIndex = 1
	}

	matched := Filter(records, search)
	totalPages := (len(matched) + pageSize - 1) / pageSize

	start := (pageIndex - 1) * pageSize
	end := start + pageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	items := make([]models.Record, end-start)
	copy(items, matched[start:end])

	return Page{
		Items:      items,
		Page:       pageIndex,
		TotalPages: totalPages,
		Matched:    len(matched),
		Summary:    Summarize(records),
	}
}

// Filter returns the records whose name or id contains search, ignoring case.
// An empty search matches everything.
func Filter(records []models.Record, search string) []models.Record {
	needle := strings.ToLower(search)
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if needle == "" ||
			strings.Contains(strings.ToLower(r.Name), needle) ||
			strings.Contains(strings.ToLower(r.ID), needle) {
			out = append(out, r)
		}
	}
	return out
}

func Summarize(records []models.Record) Summary {
	var s Summary
	s.Total = len(records)
	for _, r := range records {
		if r.Status == models.StatusActive {
			s.Active++
		}
		if r.IsVerified {
			s.Verified++
		}
		s.TotalRevealed += r.RevealedAmount()
	}
	return s
}

// ClampPage keeps a page index inside [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}
