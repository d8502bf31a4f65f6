package types_test

import (
	"encoding/json"
	"testing"

	"github.com/davidvella/barrace/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_JSON(t *testing.T) {
	original := types.Record{Date: jan1, Name: "cpu", Value: 42}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-01T00:00:00Z","name":"cpu","value":42}`, string(data))

	var decoded types.Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Date.Equal(decoded.Date))
	assert.Equal(t, original.Name, decoded.Name)
	assert.Equal(t, original.Value, decoded.Value)
}

func TestRecord_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "date only", input: `{"date":"2024-01-01","name":"cpu","value":42}`},
		{name: "missing value", input: `{"date":"2024-01-01","name":"cpu"}`, wantErr: true},
		{name: "missing name", input: `{"date":"2024-01-01","value":42}`, wantErr: true},
		{name: "empty name", input: `{"date":"2024-01-01","name":"","value":42}`, wantErr: true},
		{name: "missing date", input: `{"name":"cpu","value":42}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r types.Record
			err := json.Unmarshal([]byte(tt.input), &r)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidRecord)
				return
			}
			require.NoError(t, err)
			assert.True(t, jan1.Equal(r.Date))
		})
	}
}

func TestKeyframeRecord_JSON(t *testing.T) {
	tests := []struct {
		name   string
		record types.KeyframeRecord
		want   string
	}{
		{
			name:   "unranked",
			record: types.KeyframeRecord{Name: "cpu", Value: 42},
			want:   `{"name":"cpu","value":42}`,
		},
		{
			name:   "ranked",
			record: types.KeyframeRecord{Name: "cpu", Rank: types.Ptr(3), Value: 42},
			want:   `{"name":"cpu","rank":3,"value":42}`,
		},
		{
			name:   "rank zero is kept",
			record: types.KeyframeRecord{Name: "cpu", Rank: types.Ptr(0), Value: 42},
			want:   `{"name":"cpu","rank":0,"value":42}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.record)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var decoded types.KeyframeRecord
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.True(t, tt.record.Equal(decoded))
		})
	}
}

func TestKeyframeRecord_UnmarshalJSONMissingValue(t *testing.T) {
	var k types.KeyframeRecord
	err := json.Unmarshal([]byte(`{"name":"cpu","rank":1}`), &k)
	assert.ErrorIs(t, err, types.ErrInvalidRecord)
}
