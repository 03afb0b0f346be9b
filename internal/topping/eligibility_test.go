package topping_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/fler-tools/internal/topping"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

var testNow = time.Unix(1_700_000_000, 0)

func listing(id string, topable bool, lastTop time.Time) domain.Listing {
	return domain.Listing{
		ID:        domain.ID(id),
		Title:     "listing " + id,
		IsTopable: domain.Flag(topable),
		TsTop:     domain.Epoch(strconv.FormatInt(lastTop.Unix(), 10)),
	}
}

func ids(listings []domain.Listing) []string {
	out := make([]string, 0, len(listings))
	for i := range listings {
		out = append(out, listings[i].ID.String())
	}
	return out
}

func TestFilter(t *testing.T) {
	t.Parallel()

	cooldown := 6 * time.Hour

	tests := []struct {
		name     string
		listings []domain.Listing
		want     []string
	}{
		{
			name: "cooldown elapsed only",
			listings: []domain.Listing{
				listing("A", true, testNow.Add(-7*time.Hour)),
				listing("B", true, testNow.Add(-5*time.Hour)),
				listing("C", false, time.Unix(0, 0)),
			},
			want: []string{"A"},
		},
		{
			name: "boundary is eligible",
			listings: []domain.Listing{
				listing("A", true, testNow.Add(-cooldown)),
				listing("B", true, testNow.Add(-cooldown+time.Second)),
			},
			want: []string{"A"},
		},
		{
			name: "input order preserved",
			listings: []domain.Listing{
				listing("3", true, testNow.Add(-9*time.Hour)),
				listing("1", true, testNow.Add(-20*time.Hour)),
				listing("2", true, time.Unix(0, 0)),
			},
			want: []string{"3", "1", "2"},
		},
		{
			name: "malformed epoch is normalized",
			listings: []domain.Listing{
				{
					ID:        "N",
					IsTopable: true,
					TsTop:     domain.Epoch(strconv.FormatInt(testNow.Add(-7*time.Hour).Unix()+domain.EpochCorrection, 10)),
				},
				{
					ID:        "M",
					IsTopable: true,
					TsTop:     domain.Epoch(strconv.FormatInt(testNow.Add(-1*time.Hour).Unix()+domain.EpochCorrection, 10)),
				},
			},
			want: []string{"N"},
		},
		{
			name: "non-topable with bad timestamp is ignored",
			listings: []domain.Listing{
				{ID: "X", IsTopable: false, TsTop: "garbage"},
				listing("A", true, testNow.Add(-24*time.Hour)),
			},
			want: []string{"A"},
		},
		{
			name:     "empty",
			listings: nil,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := topping.Filter(tt.listings, cooldown, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
			assert.LessOrEqual(t, len(got), len(tt.listings))
		})
	}
}

func TestFilter_MalformedTimestamp(t *testing.T) {
	t.Parallel()

	_, err := topping.Filter([]domain.Listing{
		{ID: "1", IsTopable: true, TsTop: "not-a-number"},
	}, time.Hour, testNow)
	require.ErrorIs(t, err, domain.ErrInvalidTimestamp)
}

func TestSortMostOverdue(t *testing.T) {
	t.Parallel()

	listings := []domain.Listing{
		listing("7h", true, testNow.Add(-7*time.Hour)),
		listing("10h", true, testNow.Add(-10*time.Hour)),
		listing("never", true, time.Unix(0, 0)),
		listing("7h-b", true, testNow.Add(-7*time.Hour)),
	}

	require.NoError(t, topping.SortMostOverdue(listings))
	assert.Equal(t, []string{"never", "10h", "7h", "7h-b"}, ids(listings))
}

func TestSortMostOverdue_DuplicateIDs(t *testing.T) {
	t.Parallel()

	listings := []domain.Listing{
		listing("dup", true, testNow.Add(-time.Hour)),
		listing("other", true, testNow.Add(-5*time.Hour)),
		listing("dup", true, testNow.Add(-9*time.Hour)),
	}
	listings[0].Title = "recent"
	listings[2].Title = "oldest"

	require.NoError(t, topping.SortMostOverdue(listings))
	assert.Equal(t, []string{"dup", "other", "dup"}, ids(listings))
	assert.Equal(t, "oldest", listings[0].Title)
	assert.Equal(t, "recent", listings[2].Title)
}

func TestInspect(t *testing.T) {
	t.Parallel()

	cooldown := 6 * time.Hour
	statuses, err := topping.Inspect([]domain.Listing{
		listing("A", true, testNow.Add(-7*time.Hour)),
		listing("B", true, testNow.Add(-5*time.Hour)),
		{ID: "C", IsTopable: false, TsTop: "bad"},
	}, cooldown, testNow)
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.True(t, statuses[0].Eligible)
	assert.Equal(t, testNow.Add(-time.Hour), statuses[0].NextEligibleAt)

	assert.False(t, statuses[1].Eligible)
	assert.Equal(t, testNow.Add(time.Hour), statuses[1].NextEligibleAt)

	assert.False(t, statuses[2].Eligible)
	assert.True(t, statuses[2].LastTopped.IsZero())

	_, err = topping.Inspect([]domain.Listing{{ID: "D", IsTopable: true, TsTop: "bad"}}, cooldown, testNow)
	require.ErrorIs(t, err, domain.ErrInvalidTimestamp)
}
