// Package topping decides which listings may be promoted and runs the
// promotion batch against the Fler API.
package topping

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// tiers maps reputation floors to promotion quotas, sorted ascending by
// MinRank. The 0 floor makes resolution total over the documented [0, 100]
// rank range. See https://www.fler.cz/napoveda?scat=4&cat=3&id=2.
var tiers = []domain.QuotaTier{
	{MinRank: 0, MaxPerDay: 3, Cooldown: 8 * time.Hour},
	{MinRank: 50, MaxPerDay: 3.4, Cooldown: 7 * time.Hour},
	{MinRank: 80, MaxPerDay: 4, Cooldown: 6 * time.Hour},
	{MinRank: 95, MaxPerDay: 4.8, Cooldown: 5 * time.Hour},
	{MinRank: 97, MaxPerDay: 6, Cooldown: 4 * time.Hour},
	{MinRank: 99, MaxPerDay: 8, Cooldown: 3 * time.Hour},
	{MinRank: 99.5, MaxPerDay: 12, Cooldown: 2 * time.Hour},
}

// Tiers returns a copy of the quota tier table.
func Tiers() []domain.QuotaTier {
	return slices.Clone(tiers)
}

// ConfigError is returned when a rank falls outside the tier table.
type ConfigError struct {
	Rank float64
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rank %v is outside the quota tier table (minimum %v)", e.Rank, tiers[0].MinRank)
}

// ResolveTier returns the tier with the greatest MinRank not exceeding rank.
// Only the tier's Cooldown gates eligibility; MaxPerDay is informational and
// the daily cap is enforced by the server, not here.
func ResolveTier(rank float64) (domain.QuotaTier, error) {
	if math.IsNaN(rank) || rank < tiers[0].MinRank {
		return domain.QuotaTier{}, &ConfigError{Rank: rank}
	}

	// First tier whose floor is above rank; the one before it applies.
	i := sort.Search(len(tiers), func(i int) bool {
		return tiers[i].MinRank > rank
	})
	return tiers[i-1], nil
}
