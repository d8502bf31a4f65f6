package types

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Keys used by the key-value and JSON forms.
const (
	KeyDate  = "date"
	KeyName  = "name"
	KeyRank  = "rank"
	KeyValue = "value"
)

// DateLayout is accepted in addition to RFC 3339 when parsing dates.
const DateLayout = "2006-01-02"

// ToMap converts the record into a plain key-value mapping.
func (r Record) ToMap() map[string]any {
	return map[string]any{
		KeyDate:  r.Date,
		KeyName:  r.Name,
		KeyValue: r.Value,
	}
}

// RecordFromMap builds a Record from a mapping produced by ToMap or decoded
// from JSON. Every key is required.
func RecordFromMap(m map[string]any) (Record, error) {
	var r Record

	rawDate, ok := m[KeyDate]
	if !ok {
		return r, fmt.Errorf("%w: missing %q", ErrInvalidRecord, KeyDate)
	}
	date, err := toTime(rawDate)
	if err != nil {
		return r, err
	}

	name, err := stringField(m)
	if err != nil {
		return r, err
	}

	value, err := valueField(m)
	if err != nil {
		return r, err
	}

	r = Record{Date: date, Name: name, Value: value}
	return r, r.Validate()
}

// ToMap converts the record into a plain key-value mapping. The rank key is
// only present when the record is ranked.
func (k KeyframeRecord) ToMap() map[string]any {
	m := map[string]any{
		KeyName:  k.Name,
		KeyValue: k.Value,
	}
	if k.Rank != nil {
		m[KeyRank] = *k.Rank
	}
	return m
}

// KeyframeRecordFromMap builds a KeyframeRecord from a mapping. A missing or
// nil rank yields an unranked record.
func KeyframeRecordFromMap(m map[string]any) (KeyframeRecord, error) {
	var k KeyframeRecord

	name, err := stringField(m)
	if err != nil {
		return k, err
	}

	value, err := valueField(m)
	if err != nil {
		return k, err
	}

	k = KeyframeRecord{Name: name, Value: value}
	if raw, ok := m[KeyRank]; ok && raw != nil {
		f, err := toFloat(raw)
		if err != nil || f != math.Trunc(f) {
			return k, fmt.Errorf("%w: rank %v is not an integer", ErrInvalidRecord, raw)
		}
		if math.Abs(f) > maxExactInt {
			return k, fmt.Errorf("%w: rank %v is out of range", ErrInvalidRecord, raw)
		}
		k = k.WithRank(int(f))
	}
	return k, k.Validate()
}

func stringField(m map[string]any) (string, error) {
	raw, ok := m[KeyName]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidRecord, KeyName)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: name has type %T", ErrInvalidRecord, raw)
	}
	return s, nil
}

func valueField(m map[string]any) (float64, error) {
	raw, ok := m[KeyValue]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidRecord, KeyValue)
	}
	return toFloat(raw)
}

// maxExactInt is the largest integer every float64 below it represents exactly.
const maxExactInt = 1 << 53

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %v (%T) is not a number", ErrInvalidRecord, v, v)
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return ParseDate(t)
	default:
		return time.Time{}, fmt.Errorf("%w: date has type %T", ErrInvalidRecord, v)
	}
}

// ParseDate parses an RFC 3339 timestamp or a bare calendar date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot parse date %q", ErrInvalidRecord, s)
	}
	return t, nil
}
