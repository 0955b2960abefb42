package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/client/view"
)

func TestFormatAmount(t *testing.T) {
	v := uint64(42)
	assert.Equal(t, "42", formatAmount(models.Record{IsVerified: true, PlainAmount: &v}))
	assert.Equal(t, hiddenAmount, formatAmount(models.Record{PlainAmount: &v}))
	assert.Equal(t, hiddenAmount, formatAmount(models.Record{IsVerified: true}))
}

func TestFormatEpoch(t *testing.T) {
	assert.Equal(t, "-", formatEpoch(0))
	assert.Equal(t, "2025-03-01", formatEpoch(time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC).Unix()))
}

func TestRenderPage(t *testing.T) {
	v := uint64(1599)
	recs := []models.Record{
		{ID: "sub-1", Name: "Netflix", Frequency: models.FrequencyMonthly, Status: models.StatusActive,
			IsVerified: true, PlainAmount: &v, Creator: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"},
		{ID: "sub-2", Name: "Gym", Frequency: models.FrequencyWeekly, Status: models.StatusActive},
	}

	var out bytes.Buffer
	renderPage(&out, view.Derive(recs, "", 1, 6), "")
	s := out.String()
	assert.Contains(t, s, "Subscriptions: 2  active: 2  verified: 1  revealed total: 1599")
	assert.Contains(t, s, "Netflix")
	assert.Contains(t, s, "0xf39F...2266")
	assert.Contains(t, s, "Page 1 of 1 (2 matching)")

	out.Reset()
	renderPage(&out, view.Derive(nil, "", 1, 6), "")
	assert.Contains(t, out.String(), "No subscriptions yet")
}

func TestRenderHistory(t *testing.T) {
	var out bytes.Buffer
	renderHistory(&out, nil)
	assert.Equal(t, "No operations yet\n", out.String())

	out.Reset()
	renderHistory(&out, []models.AuditEntry{{ID: 3, Category: models.CategoryCheck, Outcome: models.OutcomeSuccess,
		Description: "Checked contract availability", Timestamp: time.Now()}})
	assert.Contains(t, out.String(), "Checked contract availability")
	assert.Contains(t, out.String(), "Check")
}
