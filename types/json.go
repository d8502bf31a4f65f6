package types

import (
	"encoding/json"
	"fmt"
	"time"
)

type recordJSON struct {
	Date  *string  `json:"date"`
	Name  *string  `json:"name"`
	Value *float64 `json:"value"`
}

type keyframeJSON struct {
	Name  *string  `json:"name"`
	Rank  *int     `json:"rank,omitempty"`
	Value *float64 `json:"value"`
}

// MarshalJSON encodes the date as RFC 3339.
func (r Record) MarshalJSON() ([]byte, error) {
	date := r.Date.Format(time.RFC3339Nano)
	return json.Marshal(recordJSON{Date: &date, Name: &r.Name, Value: &r.Value})
}

// UnmarshalJSON rejects documents missing any field.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Date == nil || raw.Name == nil || raw.Value == nil {
		return fmt.Errorf("%w: record requires date, name and value", ErrInvalidRecord)
	}
	date, err := ParseDate(*raw.Date)
	if err != nil {
		return err
	}
	rec := Record{Date: date, Name: *raw.Name, Value: *raw.Value}
	if err := rec.Validate(); err != nil {
		return err
	}
	*r = rec
	return nil
}

// MarshalJSON omits rank when the record is unranked.
func (k KeyframeRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyframeJSON{Name: &k.Name, Rank: k.Rank, Value: &k.Value})
}

// UnmarshalJSON rejects documents missing name or value. An absent or null
// rank leaves the record unranked.
func (k *KeyframeRecord) UnmarshalJSON(data []byte) error {
	var raw keyframeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Name == nil || raw.Value == nil {
		return fmt.Errorf("%w: keyframe record requires name and value", ErrInvalidRecord)
	}
	rec := KeyframeRecord{Name: *raw.Name, Rank: raw.Rank, Value: *raw.Value}
	if err := rec.Validate(); err != nil {
		return err
	}
	*k = rec
	return nil
}
