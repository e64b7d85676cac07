package entities

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/emetrics/populate/pkg/errors"
)

// StageEntry is one point of an entity's stage history: the date, the stage
// value at that date and, when the change came from a news judgment, the id
// of that news item.
//
// The stored JSON form is a two- or three-element array:
//
//	["2024-JUL-04", 2]
//	["2024-AUG-01", 3, 17]
type StageEntry struct {
	Date   string  `yaml:"date"`
	Stage  float64 `yaml:"stage"`
	NewsID *int64  `yaml:"news_id,omitempty"`
}

// HasNews reports whether the entry links a news item.
func (s StageEntry) HasNews() bool {
	return s.NewsID != nil
}

// StageString renders the stage value without trailing zeros.
func (s StageEntry) StageString() string {
	return strconv.FormatFloat(s.Stage, 'f', -1, 64)
}

// MarshalJSON encodes the entry in its array form.
func (s StageEntry) MarshalJSON() ([]byte, error) {
	fields := []any{s.Date, s.Stage}
	if s.NewsID != nil {
		fields = append(fields, *s.NewsID)
	}
	return json.Marshal(fields)
}

// UnmarshalJSON decodes the array form. A null third element is treated as
// no linked news.
func (s *StageEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.WrapParse("json", "", err)
	}
	if len(raw) < 2 || len(raw) > 3 {
		return errors.NewParseError("json", "", "stage entry must have 2 or 3 fields, got "+strconv.Itoa(len(raw)), nil)
	}

	var entry StageEntry
	if err := json.Unmarshal(raw[0], &entry.Date); err != nil {
		return errors.NewParseError("json", "", "stage entry date", err)
	}
	stage, err := decodeNumber(raw[1])
	if err != nil {
		return errors.NewParseError("json", "", "stage entry value", err)
	}
	entry.Stage = stage

	if len(raw) == 3 && !bytes.Equal(bytes.TrimSpace(raw[2]), []byte("null")) {
		id, err := decodeNumber(raw[2])
		if err != nil {
			return errors.NewParseError("json", "", "stage entry news id", err)
		}
		newsID := int64(id)
		entry.NewsID = &newsID
	}

	*s = entry
	return nil
}

// decodeNumber accepts a JSON number or a numeric string.
func decodeNumber(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(str, 64)
}
