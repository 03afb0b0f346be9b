package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/donaldgifford/fler-tools/internal/topping"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printRunSummary(w io.Writer, s *domain.RunSummary) error {
	tw := newTabWriter(w)
	tw.writef("Rank:\t%.2f\n", s.Rank)
	tw.writef("Cooldown:\t%s\n", s.Tier.Cooldown)
	tw.writef("Eligible:\t%d\n", s.Eligible)
	if s.DryRun {
		tw.writef("Dry run:\tnothing was promoted\n")
	}
	tw.writef("Topped:\t%d %s\n", s.ToppedCount, strings.Join(s.ToppedIDs, ","))
	tw.writef("Quota exhausted:\t%v\n", s.Halted)
	for i := range s.Outcomes {
		o := &s.Outcomes[i]
		if !o.Succeeded && o.Error != "" {
			tw.writef("Failed %s:\t%s\n", o.ListingID, truncate(o.Error, 60))
		}
	}
	tw.writef("Duration:\t%s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	return tw.finish()
}

func printTiersTable(w io.Writer, tiers []domain.QuotaTier, current *domain.QuotaTier) error {
	tw := newTabWriter(w)
	tw.writef("MIN RANK\tMAX/DAY\tCOOLDOWN\t\n")
	for i := range tiers {
		marker := ""
		if current != nil && tiers[i].MinRank == current.MinRank {
			marker = "<"
		}
		tw.writef("%g\t%g\t%s\t%s\n", tiers[i].MinRank, tiers[i].MaxPerDay, tiers[i].Cooldown, marker)
	}
	return tw.finish()
}

func printListingsTable(w io.Writer, statuses []topping.ListingStatus) error {
	tw := newTabWriter(w)
	tw.writef("ID\tTITLE\tTOPABLE\tLAST TOPPED\tNEXT ELIGIBLE\tELIGIBLE\n")
	for i := range statuses {
		st := &statuses[i]
		tw.writef("%s\t%s\t%v\t%s\t%s\t%v\n",
			st.Listing.ID,
			truncate(st.Listing.Title, 40),
			bool(st.Listing.IsTopable),
			formatTime(st.LastTopped),
			formatTime(st.NextEligibleAt),
			st.Eligible,
		)
	}
	return tw.finish()
}

func printJobRunsTable(w io.Writer, runs []domain.JobRun) error {
	tw := newTabWriter(w)
	tw.writef("JOB\tSTATUS\tSTARTED\tCOMPLETED\tROWS\tERROR\n")
	for i := range runs {
		r := &runs[i]
		completed := "-"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Local().Format(timeLayout)
		}
		rows := "-"
		if r.RowsAffected != nil {
			rows = fmt.Sprintf("%d", *r.RowsAffected)
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			r.JobName,
			r.Status,
			r.StartedAt.Local().Format(timeLayout),
			completed,
			rows,
			truncate(r.ErrorText, 40),
		)
	}
	return tw.finish()
}

func printPromotionsTable(w io.Writer, records []domain.PromotionRecord) error {
	tw := newTabWriter(w)
	tw.writef("ATTEMPTED\tLISTING\tRESULT\tERROR\n")
	for i := range records {
		r := &records[i]
		result := "failed"
		switch {
		case r.Succeeded:
			result = "topped"
		case r.HaltedRun:
			result = "quota"
		}
		tw.writef("%s\t%s\t%s\t%s\n",
			r.AttemptedAt.Local().Format(timeLayout),
			r.ListingID,
			result,
			truncate(r.ErrorText, 40),
		)
	}
	return tw.finish()
}

func formatTime(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return "never"
	}
	return t.Local().Format(timeLayout)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
