package keyframe_test

import (
	"math"
	"testing"
	"time"

	"github.com/davidvella/barrace/keyframe"
	"github.com/davidvella/barrace/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func ranked(name string, rank int, value float64) types.KeyframeRecord {
	return types.KeyframeRecord{Name: name, Rank: types.Ptr(rank), Value: value}
}

func unranked(name string, value float64) types.KeyframeRecord {
	return types.KeyframeRecord{Name: name, Value: value}
}

func TestRank(t *testing.T) {
	input := []types.KeyframeRecord{
		unranked("a", 1),
		unranked("b", 3),
		unranked("c", 2),
		unranked("d", 3),
	}

	tests := []struct {
		name string
		opts []keyframe.Option
		want []types.KeyframeRecord
	}{
		{
			name: "ranks all by value then name",
			want: []types.KeyframeRecord{ranked("b", 0, 3), ranked("d", 1, 3), ranked("c", 2, 2), ranked("a", 3, 1)},
		},
		{
			name: "top n drops the rest",
			opts: []keyframe.Option{keyframe.WithTopN(2)},
			want: []types.KeyframeRecord{ranked("b", 0, 3), ranked("d", 1, 3)},
		},
		{
			name: "top n keeps overflow unranked",
			opts: []keyframe.Option{keyframe.WithTopN(2), keyframe.WithUnrankedOverflow()},
			want: []types.KeyframeRecord{ranked("b", 0, 3), ranked("d", 1, 3), unranked("c", 2), unranked("a", 1)},
		},
		{
			name: "top n larger than input",
			opts: []keyframe.Option{keyframe.WithTopN(10)},
			want: []types.KeyframeRecord{ranked("b", 0, 3), ranked("d", 1, 3), ranked("c", 2, 2), ranked("a", 3, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keyframe.Rank(input, tt.opts...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Rank() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	for _, r := range input {
		assert.False(t, r.HasRank(), "input must not be modified")
	}
}

func TestRank_ReplacesExistingRanks(t *testing.T) {
	got := keyframe.Rank([]types.KeyframeRecord{ranked("a", 7, 1), ranked("b", 0, 2)})
	want := []types.KeyframeRecord{ranked("b", 0, 2), ranked("a", 1, 1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rank() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild(t *testing.T) {
	records := []types.Record{
		{Date: day(0), Name: "a", Value: 10},
		{Date: day(0), Name: "b", Value: 20},
		{Date: day(1), Name: "a", Value: 30},
		{Date: day(2), Name: "c", Value: 5},
	}

	tests := []struct {
		name string
		opts []keyframe.Option
		want []keyframe.Keyframe
	}{
		{
			name: "one frame per date with gaps carried",
			want: []keyframe.Keyframe{
				{Date: day(0), Records: []types.KeyframeRecord{ranked("b", 0, 20), ranked("a", 1, 10), ranked("c", 2, 0)}},
				{Date: day(1), Records: []types.KeyframeRecord{ranked("a", 0, 30), ranked("b", 1, 20), ranked("c", 2, 0)}},
				{Date: day(2), Records: []types.KeyframeRecord{ranked("a", 0, 30), ranked("b", 1, 20), ranked("c", 2, 5)}},
			},
		},
		{
			name: "interpolated frames",
			opts: []keyframe.Option{keyframe.WithInterpolation(1), keyframe.WithTopN(2)},
			want: []keyframe.Keyframe{
				{Date: day(0), Records: []types.KeyframeRecord{ranked("b", 0, 20), ranked("a", 1, 10)}},
				{Date: day(0).Add(12 * time.Hour), Records: []types.KeyframeRecord{ranked("a", 0, 20), ranked("b", 1, 20)}},
				{Date: day(1), Records: []types.KeyframeRecord{ranked("a", 0, 30), ranked("b", 1, 20)}},
				{Date: day(1).Add(12 * time.Hour), Records: []types.KeyframeRecord{ranked("a", 0, 30), ranked("b", 1, 20)}},
				{Date: day(2), Records: []types.KeyframeRecord{ranked("a", 0, 30), ranked("b", 1, 20)}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyframe.Build(records, tt.opts...)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Build() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_Unordered(t *testing.T) {
	ordered := []types.Record{
		{Date: day(0), Name: "a", Value: 1},
		{Date: day(1), Name: "a", Value: 2},
	}
	shuffled := []types.Record{ordered[1], ordered[0]}

	want, err := keyframe.Build(ordered)
	require.NoError(t, err)
	got, err := keyframe.Build(shuffled)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() depends on input order (-want +got):\n%s", diff)
	}
}

func TestBuild_DatesOutsideNanosecondRange(t *testing.T) {
	early := time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2084, 7, 20, 23, 34, 33, 709551616, time.UTC)

	got, err := keyframe.Build([]types.Record{
		{Date: late, Name: "a", Value: 2},
		{Date: early, Name: "a", Value: 1},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, early.Equal(got[0].Date))
	assert.Equal(t, 1.0, got[0].Records[0].Value)
	assert.True(t, late.Equal(got[1].Date))
	assert.Equal(t, 2.0, got[1].Records[0].Value)
}

func TestBuild_SameInstantAcrossZones(t *testing.T) {
	got, err := keyframe.Build([]types.Record{
		{Date: day(0), Name: "a", Value: 1},
		{Date: day(0).In(time.FixedZone("UTC+2", 2*60*60)), Name: "b", Value: 2},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Records, 2)
}

func TestBuild_LaterDuplicateWins(t *testing.T) {
	got, err := keyframe.Build([]types.Record{
		{Date: day(0), Name: "a", Value: 1},
		{Date: day(0), Name: "a", Value: 2},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Records[0].Value)
}

func TestBuild_Errors(t *testing.T) {
	t.Run("invalid record", func(t *testing.T) {
		_, err := keyframe.Build([]types.Record{
			{Date: day(0), Name: "a", Value: 1},
			{Date: day(0), Name: "b", Value: math.NaN()},
		})
		assert.ErrorIs(t, err, types.ErrInvalidRecord)
		assert.ErrorContains(t, err, "record 1")
	})

	t.Run("negative interpolation", func(t *testing.T) {
		_, err := keyframe.Build(nil, keyframe.WithInterpolation(-1))
		assert.ErrorIs(t, err, keyframe.ErrInvalidInterpolation)
	})

	t.Run("interpolation beyond limit", func(t *testing.T) {
		records := []types.Record{
			{Date: day(0), Name: "a", Value: 1},
			{Date: day(1), Name: "a", Value: 2},
			{Date: day(2), Name: "a", Value: 3},
		}
		for _, k := range []int{keyframe.MaxInterpolation + 1, 1 << 62} {
			_, err := keyframe.Build(records, keyframe.WithInterpolation(k))
			assert.ErrorIs(t, err, keyframe.ErrInvalidInterpolation)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		frames, err := keyframe.Build(nil)
		assert.NoError(t, err)
		assert.Empty(t, frames)
	})
}
