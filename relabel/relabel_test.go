package relabel

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/districtlab/benstream"
)

func TestFirstAppearance(t *testing.T) {
	tests := []struct {
		name string
		in   []uint64
		want []uint64
	}{
		{
			name: "already canonical",
			in:   []uint64{1, 1, 2, 2},
			want: []uint64{1, 1, 2, 2},
		},
		{
			name: "reversed labels",
			in:   []uint64{9, 9, 4, 4},
			want: []uint64{1, 1, 2, 2},
		},
		{
			name: "interleaved",
			in:   []uint64{5, 2, 5, 7, 2},
			want: []uint64{1, 2, 1, 3, 2},
		},
		{
			name: "zero label input",
			in:   []uint64{0, 0, 3},
			want: []uint64{1, 1, 2},
		},
		{
			name: "huge labels",
			in:   []uint64{1 << 50, 1 << 40, 1 << 50},
			want: []uint64{1, 2, 1},
		},
	}

	p := FirstAppearance{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]uint64(nil), tt.in...)
			assert.Equal(t, tt.want, p.Relabel(tt.in))
			assert.Equal(t, in, tt.in, "input must not be mutated")
		})
	}
}

func TestFirstAppearance_PartitionEquivalence(t *testing.T) {
	// Two vectors that induce the same partition with different label values
	// must canonicalize identically.
	p := FirstAppearance{}
	a := p.Relabel([]uint64{3, 3, 8, 8, 3})
	b := p.Relabel([]uint64{100, 100, 7, 7, 100})
	assert.Equal(t, a, b)
}

func TestIdentity(t *testing.T) {
	in := []uint64{42, 0, 42}
	out := Identity{}.Relabel(in)
	assert.Equal(t, in, out)

	out[0] = 1
	assert.EqualValues(t, 42, in[0], "identity must copy, not alias")
}

func TestByName(t *testing.T) {
	p, ok := ByName("first-appearance")
	require.True(t, ok)
	assert.Equal(t, "first-appearance", p.Name())

	p, ok = ByName("identity")
	require.True(t, ok)
	assert.Equal(t, "identity", p.Name())

	_, ok = ByName("nope")
	assert.False(t, ok)
}

func TestRewrite(t *testing.T) {
	// Chain with self-loops and non-canonical labels.
	steps := [][]uint64{
		{7, 7, 3, 3},
		{7, 7, 3, 3},
		{7, 3, 3, 3},
		{9, 5, 5, 9}, // same partition shape as {1,2,2,1}
	}

	var src bytes.Buffer
	enc, err := benstream.NewEncoder(&src, 4, benstream.ModeChain)
	require.NoError(t, err)
	for _, s := range steps {
		require.NoError(t, enc.WriteAssignment(s))
	}
	require.NoError(t, enc.Close())

	dec, err := benstream.NewDecoder(bytes.NewReader(src.Bytes()))
	require.NoError(t, err)

	var dst bytes.Buffer
	out, err := benstream.NewEncoder(&dst, 4, benstream.ModeChain)
	require.NoError(t, err)

	require.NoError(t, Rewrite(out, dec, FirstAppearance{}))
	require.NoError(t, out.Close())

	redec, err := benstream.NewDecoder(bytes.NewReader(dst.Bytes()))
	require.NoError(t, err)

	want := [][]uint64{
		{1, 1, 2, 2},
		{1, 1, 2, 2},
		{1, 2, 2, 2},
		{1, 2, 2, 1},
	}
	for _, w := range want {
		got, err := redec.Next()
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
	_, err = redec.Next()
	assert.Equal(t, io.EOF, err)
}

func TestRewrite_PreservesMultiplicities(t *testing.T) {
	var src bytes.Buffer
	enc, err := benstream.NewEncoder(&src, 3, benstream.ModeChain)
	require.NoError(t, err)
	require.NoError(t, enc.WriteRepeated([]uint64{4, 4, 8}, 5))
	require.NoError(t, enc.WriteRepeated([]uint64{4, 8, 8}, 2))
	require.NoError(t, enc.Close())

	dec, err := benstream.NewDecoder(bytes.NewReader(src.Bytes()))
	require.NoError(t, err)

	var dst bytes.Buffer
	out, err := benstream.NewEncoder(&dst, 3, benstream.ModeChain)
	require.NoError(t, err)
	require.NoError(t, Rewrite(out, dec, FirstAppearance{}))
	require.NoError(t, out.Close())

	redec, err := benstream.NewDecoder(bytes.NewReader(dst.Bytes()))
	require.NoError(t, err)

	rec, err := redec.NextCompact()
	require.NoError(t, err)
	assert.EqualValues(t, 5, rec.Multiplicity)
	assert.Equal(t, []uint64{1, 1, 2}, rec.Assignment)

	rec, err = redec.NextCompact()
	require.NoError(t, err)
	assert.EqualValues(t, 2, rec.Multiplicity)
	assert.Equal(t, []uint64{1, 2, 2}, rec.Assignment)

	_, err = redec.NextCompact()
	assert.Equal(t, io.EOF, err)
}

func TestRewrite_UnitCountMismatch(t *testing.T) {
	var src bytes.Buffer
	enc, err := benstream.NewEncoder(&src, 4, benstream.ModeStandard)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	dec, err := benstream.NewDecoder(bytes.NewReader(src.Bytes()))
	require.NoError(t, err)

	out, err := benstream.NewEncoder(&bytes.Buffer{}, 5, benstream.ModeStandard)
	require.NoError(t, err)

	assert.Error(t, Rewrite(out, dec, nil))
}
