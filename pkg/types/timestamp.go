package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// MalformedEpochThreshold is the largest epoch value the API is trusted to
// report correctly. Some ts_top values come back with a leading 2 instead of
// a 1 and must be shifted down by EpochCorrection.
const (
	MalformedEpochThreshold int64 = 2_490_000_000
	EpochCorrection         int64 = 1_000_000_000
)

// ErrInvalidTimestamp is returned when a raw epoch is not an integer.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// NormalizeEpoch corrects the upstream off-by-one-digit defect. Values at or
// below the threshold are returned unchanged.
func NormalizeEpoch(raw int64) int64 {
	if raw > MalformedEpochThreshold {
		return raw - EpochCorrection
	}
	return raw
}

// ParseEpoch parses raw as a base-10 integer and normalizes it.
func ParseEpoch(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
	}
	return NormalizeEpoch(v), nil
}

// Epoch is a raw epoch-seconds value as returned by the API, kept verbatim
// until it is consumed. It decodes from a JSON number or string; null and
// the empty string both decode as "0" (never promoted). A missing value
// also reads as zero seconds.
type Epoch string

// UnmarshalJSON implements json.Unmarshaler.
func (e *Epoch) UnmarshalJSON(data []byte) error {
	text, null, err := scalarText(data)
	if err != nil {
		return err
	}
	if null || text == "" {
		text = "0"
	}
	*e = Epoch(text)
	return nil
}

// MarshalJSON writes the raw value back as a JSON string.
func (e Epoch) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(e))
}

// Seconds returns the normalized seconds since the Unix epoch.
func (e Epoch) Seconds() (int64, error) {
	if e == "" {
		return 0, nil
	}
	return ParseEpoch(string(e))
}

// Time returns the normalized instant.
func (e Epoch) Time() (time.Time, error) {
	s, err := e.Seconds()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(s, 0), nil
}
