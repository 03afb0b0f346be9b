package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

func TestNormalizeEpoch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  int64
		want int64
	}{
		{name: "above threshold is corrected", raw: 2490000001, want: 1490000001},
		{name: "just below threshold unchanged", raw: 2489999999, want: 2489999999},
		{name: "threshold itself unchanged", raw: 2490000000, want: 2490000000},
		{name: "typical value unchanged", raw: 1700000000, want: 1700000000},
		{name: "zero unchanged", raw: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, domain.NormalizeEpoch(tt.raw))
		})
	}
}

func TestNormalizeEpoch_FixedPointForCorrectedValues(t *testing.T) {
	t.Parallel()

	for _, v := range []int64{0, 1, 1490000001, 2000000000, 2490000000} {
		assert.Equal(t, v, domain.NormalizeEpoch(domain.NormalizeEpoch(v)), "value %d", v)
	}
}

func TestParseEpoch(t *testing.T) {
	t.Parallel()

	got, err := domain.ParseEpoch("2490000001")
	require.NoError(t, err)
	assert.Equal(t, int64(1490000001), got)

	for _, bad := range []string{"", "abc", "1.5", "12e3"} {
		_, err := domain.ParseEpoch(bad)
		require.ErrorIs(t, err, domain.ErrInvalidTimestamp, "input %q", bad)
	}
}

func TestListing_UnmarshalLooseScalars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		payload   string
		wantID    string
		topable   bool
		wantTop   int64
		wantPrice float64
	}{
		{
			name:      "numbers",
			payload:   `{"id": 123, "is_topable": 1, "ts_top": 1700000000, "price": 250.5}`,
			wantID:    "123",
			topable:   true,
			wantTop:   1700000000,
			wantPrice: 250.5,
		},
		{
			name:      "strings",
			payload:   `{"id": "77", "is_topable": "0", "ts_top": "2700000000", "price": "99"}`,
			wantID:    "77",
			topable:   false,
			wantTop:   1700000000,
			wantPrice: 99,
		},
		{
			name:    "booleans and null timestamp",
			payload: `{"id": 5, "is_topable": true, "ts_top": null}`,
			wantID:  "5",
			topable: true,
			wantTop: 0,
		},
		{
			name:    "empty timestamp reads as never topped",
			payload: `{"id": 6, "is_topable": 1, "ts_top": ""}`,
			wantID:  "6",
			topable: true,
			wantTop: 0,
		},
		{
			name:    "missing timestamp reads as never topped",
			payload: `{"id": 8, "is_topable": 1}`,
			wantID:  "8",
			topable: true,
			wantTop: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var l domain.Listing
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &l))

			assert.Equal(t, tt.wantID, l.ID.String())
			assert.Equal(t, tt.topable, bool(l.IsTopable))
			assert.InDelta(t, tt.wantPrice, float64(l.Price), 0.0001)

			last, err := l.LastTopped()
			require.NoError(t, err)
			assert.Equal(t, time.Unix(tt.wantTop, 0), last)
		})
	}
}

func TestListing_MalformedTimestamp(t *testing.T) {
	t.Parallel()

	var l domain.Listing
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "ts_top": "yesterday"}`), &l))

	_, err := l.LastTopped()
	require.ErrorIs(t, err, domain.ErrInvalidTimestamp)
}

func TestAccount_Rank(t *testing.T) {
	t.Parallel()

	var a domain.Account
	require.NoError(t, json.Unmarshal(
		[]byte(`{"seller": {"fler_rank": "96.5", "fans_count": 12}}`), &a,
	))
	assert.InDelta(t, 96.5, a.Rank(), 0.0001)
	assert.Equal(t, int64(12), a.Seller.FansCount.Int())
}

func TestRunSummary_Record(t *testing.T) {
	t.Parallel()

	var s domain.RunSummary
	s.Record(domain.PromotionOutcome{ListingID: "1", Succeeded: true})
	s.Record(domain.PromotionOutcome{ListingID: "2", HaltedRun: true, Error: "quota"})

	assert.Equal(t, 1, s.ToppedCount)
	assert.Equal(t, []string{"1"}, s.ToppedIDs)
	assert.True(t, s.Halted)
	assert.Len(t, s.Outcomes, 2)
}
