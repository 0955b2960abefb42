package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/client/view"
)

const hiddenAmount = "***"

func shortAddress(addr string) string {
	return models.Record{Creator: addr}.ShortCreator()
}

func formatAmount(r models.Record) string {
	if !r.IsVerified || r.PlainAmount == nil {
		return hiddenAmount
	}
	return strconv.FormatUint(*r.PlainAmount, 10)
}

func formatEpoch(epoch int64) string {
	if epoch == 0 {
		return "-"
	}
	return time.Unix(epoch, 0).UTC().Format("2006-01-02")
}

func renderPage(w io.Writer, p view.Page, search string) {
	s := p.Summary
	fmt.Fprintf(w, "Subscriptions: %d  active: %d  verified: %d  revealed total: %d\n",
		s.Total, s.Active, s.Verified, s.TotalRevealed)

	if p.Matched == 0 {
		if search != "" {
			fmt.Fprintf(w, "No subscriptions match %q\n", search)
		} else {
			fmt.Fprintln(w, "No subscriptions yet: use add to create one")
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAMOUNT\tFREQUENCY\tNEXT BILLING\tVERIFIED\tCREATOR")
	for _, r := range p.Items {
		verified := "no"
		if r.IsVerified {
			verified = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, formatAmount(r), r.Frequency, formatEpoch(r.NextBillingEpoch), verified, r.ShortCreator())
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "Page %d of %d (%d matching)\n", p.Page, p.TotalPages, p.Matched)
}

func renderHistory(w io.Writer, entries []models.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No operations yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTIME\tCATEGORY\tOUTCOME\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, e.Timestamp.Local().Format("15:04:05"), e.Category, e.Outcome, e.Description)
	}
	_ = tw.Flush()
}
