package rle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAssignment(t *testing.T) {
	tests := []struct {
		name       string
		assignment []uint64
		want       []Run
	}{
		{
			name:       "empty",
			assignment: nil,
			want:       nil,
		},
		{
			name:       "single unit",
			assignment: []uint64{7},
			want:       []Run{{Label: 7, Length: 1}},
		},
		{
			name:       "uniform",
			assignment: []uint64{3, 3, 3, 3},
			want:       []Run{{Label: 3, Length: 4}},
		},
		{
			name:       "two runs",
			assignment: []uint64{1, 1, 2, 2},
			want:       []Run{{Label: 1, Length: 2}, {Label: 2, Length: 2}},
		},
		{
			name:       "alternating",
			assignment: []uint64{1, 2, 1, 2},
			want: []Run{
				{Label: 1, Length: 1},
				{Label: 2, Length: 1},
				{Label: 1, Length: 1},
				{Label: 2, Length: 1},
			},
		},
		{
			name:       "large labels preserved",
			assignment: []uint64{1 << 40, 1 << 40, 0},
			want:       []Run{{Label: 1 << 40, Length: 2}, {Label: 0, Length: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromAssignment(tt.assignment))
		})
	}
}

func TestFromAssignment_Maximality(t *testing.T) {
	runs := FromAssignment([]uint64{5, 5, 1, 1, 1, 5, 2})
	for i := 1; i < len(runs); i++ {
		assert.NotEqual(t, runs[i-1].Label, runs[i].Label, "adjacent runs must not share a label")
	}
	assert.EqualValues(t, 7, Sum(runs))
}

func TestExpand_RoundTrip(t *testing.T) {
	vectors := [][]uint64{
		{1},
		{1, 1, 2, 2},
		{0, 0, 0},
		{9, 8, 7, 7, 7, 6},
	}
	for _, vec := range vectors {
		got, err := Expand(FromAssignment(vec), len(vec))
		require.NoError(t, err)
		assert.Equal(t, vec, got)
	}
}

func TestExpand_Errors(t *testing.T) {
	t.Run("sum too small", func(t *testing.T) {
		_, err := Expand([]Run{{Label: 1, Length: 3}}, 4)
		assert.ErrorIs(t, err, ErrLengthSum)
	})

	t.Run("sum too large", func(t *testing.T) {
		_, err := Expand([]Run{{Label: 1, Length: 5}}, 4)
		assert.ErrorIs(t, err, ErrLengthSum)
	})

	t.Run("zero run", func(t *testing.T) {
		_, err := Expand([]Run{{Label: 1, Length: 4}, {Label: 2, Length: 0}}, 4)
		assert.ErrorIs(t, err, ErrZeroRun)
	})

	t.Run("empty runs nonzero n", func(t *testing.T) {
		_, err := Expand(nil, 1)
		assert.ErrorIs(t, err, ErrLengthSum)
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		runs []Run
		want []Run
	}{
		{
			name: "empty",
			runs: nil,
			want: nil,
		},
		{
			name: "already maximal",
			runs: []Run{{Label: 1, Length: 2}, {Label: 2, Length: 2}},
			want: []Run{{Label: 1, Length: 2}, {Label: 2, Length: 2}},
		},
		{
			name: "adjacent same label merged",
			runs: []Run{{Label: 1, Length: 2}, {Label: 1, Length: 2}, {Label: 2, Length: 2}},
			want: []Run{{Label: 1, Length: 4}, {Label: 2, Length: 2}},
		},
		{
			name: "all one label",
			runs: []Run{{Label: 3, Length: 1}, {Label: 3, Length: 1}, {Label: 3, Length: 1}},
			want: []Run{{Label: 3, Length: 3}},
		},
		{
			name: "same label separated by another",
			runs: []Run{{Label: 1, Length: 1}, {Label: 2, Length: 1}, {Label: 1, Length: 1}},
			want: []Run{{Label: 1, Length: 1}, {Label: 2, Length: 1}, {Label: 1, Length: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.runs)
			assert.Equal(t, tt.want, got)
			for i := 1; i < len(got); i++ {
				assert.NotEqual(t, got[i-1].Label, got[i].Label, "adjacent runs must not share a label")
			}
		})
	}
}

func TestNormalize_MatchesFromAssignment(t *testing.T) {
	vec := []uint64{1, 1, 1, 1, 2, 2, 1}
	split := []Run{
		{Label: 1, Length: 2}, {Label: 1, Length: 2},
		{Label: 2, Length: 1}, {Label: 2, Length: 1},
		{Label: 1, Length: 1},
	}
	assert.True(t, Equal(FromAssignment(vec), Normalize(split)))
}

func TestEqual(t *testing.T) {
	a := []Run{{Label: 1, Length: 2}, {Label: 2, Length: 2}}
	b := []Run{{Label: 1, Length: 2}, {Label: 2, Length: 2}}
	c := []Run{{Label: 1, Length: 2}, {Label: 2, Length: 3}}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a, a[:1]))
}
