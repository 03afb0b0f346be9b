// Package domain defines the core business types shared by the Fler client,
// the topping runner and the statistics exporter.
package domain

import (
	"time"
)

// Seller holds the seller section of the account info payload.
type Seller struct {
	FansCount         Number `json:"fans_count"`
	FlerRank          Number `json:"fler_rank"`
	RatingCount       Number `json:"rating_count"`
	RatingPct         Number `json:"rating_pct"`
	ProductsSoldCount Number `json:"products_sold_count"`
}

// Account is the decoded /user/account/info response.
type Account struct {
	Seller Seller `json:"seller"`
}

// Rank returns the seller reputation score used for quota tier resolution.
func (a *Account) Rank() float64 {
	return float64(a.Seller.FlerRank)
}

// Listing is a single product from /seller/products/list. Only the fields
// that were requested are populated.
type Listing struct {
	ID               ID     `json:"id"`
	Title            string `json:"title,omitempty"`
	Price            Number `json:"price,omitempty"`
	PriceWithoutProv Number `json:"price_without_prov,omitempty"`
	Currency         string `json:"currency,omitempty"`
	Stock            Number `json:"stock,omitempty"`
	StockUnit        string `json:"stock_unit,omitempty"`
	Category         Number `json:"category,omitempty"`
	SellCategory     Number `json:"sellcategory,omitempty"`
	URL              string `json:"url,omitempty"`
	IsVisible        Flag   `json:"is_visible,omitempty"`
	IsCool           Flag   `json:"is_cool,omitempty"`
	IsCraft          Flag   `json:"is_craft,omitempty"`
	IsTopable        Flag   `json:"is_topable"`
	TsTop            Epoch  `json:"ts_top"`
	TsIns            Epoch  `json:"ts_ins,omitempty"`
}

// LastTopped returns the normalized time of the listing's last promotion.
func (l *Listing) LastTopped() (time.Time, error) {
	return l.TsTop.Time()
}

// QuotaTier is the promotion quota unlocked at a reputation floor.
type QuotaTier struct {
	MinRank   float64       `json:"min_rank"`
	MaxPerDay float64       `json:"max_per_day"`
	Cooldown  time.Duration `json:"cooldown"`
}

// PromotionOutcome is the result of a single promotion attempt.
type PromotionOutcome struct {
	ListingID string `json:"listing_id"`
	Succeeded bool   `json:"succeeded"`
	HaltedRun bool   `json:"halted_run"`
	Error     string `json:"error,omitempty"`
}

// PromotionRecord is a persisted promotion attempt.
type PromotionRecord struct {
	ID          string    `json:"id"                  db:"id"`
	RunID       string    `json:"run_id,omitempty"    db:"run_id"`
	ListingID   string    `json:"listing_id"          db:"listing_id"`
	Succeeded   bool      `json:"succeeded"           db:"succeeded"`
	HaltedRun   bool      `json:"halted_run"          db:"halted_run"`
	ErrorText   string    `json:"error_text,omitempty" db:"error_text"`
	AttemptedAt time.Time `json:"attempted_at"        db:"attempted_at"`
}

// RunSummary describes one completed (or aborted) topping run.
type RunSummary struct {
	ToppedCount int                `json:"topped_count"`
	ToppedIDs   []string           `json:"topped_ids"`
	Eligible    int                `json:"eligible"`
	Halted      bool               `json:"halted"`
	DryRun      bool               `json:"dry_run,omitempty"`
	Rank        float64            `json:"rank"`
	Tier        QuotaTier          `json:"tier"`
	Outcomes    []PromotionOutcome `json:"outcomes"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
}

// Record appends an outcome and updates the topped counters.
func (s *RunSummary) Record(o PromotionOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	if o.Succeeded {
		s.ToppedCount++
		s.ToppedIDs = append(s.ToppedIDs, o.ListingID)
	}
	if o.HaltedRun {
		s.Halted = true
	}
}

// QuotaStatus is a snapshot of the client-side API call budget.
type QuotaStatus struct {
	DailyLimit int64     `json:"daily_limit"`
	DailyUsed  int64     `json:"daily_used"`
	Remaining  int64     `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
}

// JobRun records a single execution of a scheduled or manual job.
type JobRun struct {
	ID           string     `json:"id"                      db:"id"`
	JobName      string     `json:"job_name"                db:"job_name"`
	StartedAt    time.Time  `json:"started_at"              db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"  db:"completed_at"`
	Status       string     `json:"status"                  db:"status"`
	ErrorText    string     `json:"error_text,omitempty"    db:"error_text"`
	RowsAffected *int       `json:"rows_affected,omitempty" db:"rows_affected"`
}

// Job run statuses.
const (
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
	JobStatusHalted    = "halted"
)
