package topping

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// Eligible reports whether l may be promoted at now: it must be topable and
// its normalized last promotion plus cooldown must not be after now.
func Eligible(l *domain.Listing, cooldown time.Duration, now time.Time) (bool, error) {
	if !l.IsTopable {
		return false, nil
	}

	last, err := l.LastTopped()
	if err != nil {
		return false, fmt.Errorf("listing %s: %w", l.ID, err)
	}

	return !last.Add(cooldown).After(now), nil
}

// Filter returns the eligible listings in their input order. All listings
// are judged against the same instant.
func Filter(listings []domain.Listing, cooldown time.Duration, now time.Time) ([]domain.Listing, error) {
	var out []domain.Listing
	for i := range listings {
		ok, err := Eligible(&listings[i], cooldown, now)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, listings[i])
		}
	}
	return out, nil
}

// SortMostOverdue orders listings by normalized last promotion, oldest
// first. Listings with equal timestamps keep their relative order.
func SortMostOverdue(listings []domain.Listing) error {
	type keyed struct {
		listing domain.Listing
		last    int64
	}

	sorted := make([]keyed, len(listings))
	for i := range listings {
		s, err := listings[i].TsTop.Seconds()
		if err != nil {
			return fmt.Errorf("listing %s: %w", listings[i].ID, err)
		}
		sorted[i] = keyed{listing: listings[i], last: s}
	}

	slices.SortStableFunc(sorted, func(a, b keyed) int {
		return cmp.Compare(a.last, b.last)
	})
	for i := range sorted {
		listings[i] = sorted[i].listing
	}
	return nil
}

// ListingStatus is the eligibility of one listing at a point in time.
type ListingStatus struct {
	Listing        domain.Listing `json:"listing"`
	LastTopped     time.Time      `json:"last_topped"`
	NextEligibleAt time.Time      `json:"next_eligible_at"`
	Eligible       bool           `json:"eligible"`
}

// Inspect reports the eligibility of every listing at now, in input order.
// A malformed timestamp on a non-topable listing leaves its times zero.
func Inspect(listings []domain.Listing, cooldown time.Duration, now time.Time) ([]ListingStatus, error) {
	out := make([]ListingStatus, 0, len(listings))
	for i := range listings {
		st := ListingStatus{Listing: listings[i]}

		last, err := listings[i].LastTopped()
		switch {
		case err != nil && bool(listings[i].IsTopable):
			return nil, fmt.Errorf("listing %s: %w", listings[i].ID, err)
		case err == nil:
			st.LastTopped = last
			st.NextEligibleAt = last.Add(cooldown)
			st.Eligible = bool(listings[i].IsTopable) && !st.NextEligibleAt.After(now)
		}

		out = append(out, st)
	}
	return out, nil
}
