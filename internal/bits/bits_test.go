package bits

import (
	"testing"

	"github.com/PearlCalc/extension/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binary() Template {
	return Template{
		Values: []uint32{1, 2, 4, 8, 16, 32, 64, 128},
		DirectionMasks: map[string]string{
			"00": "North",
			"01": "East",
			"10": "South",
			"11": "West",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		values []uint32
		err    error
	}{
		{"binary", []uint32{1, 2, 4, 8}, nil},
		{"unsorted", []uint32{4, 1, 2}, nil},
		{"repeated", []uint32{1, 1, 1, 3, 6}, nil},
		{"empty", nil, ErrEmptyTemplate},
		{"zero", []uint32{0, 1}, ErrInvalidValue},
		{"no unit", []uint32{2, 4}, ErrNoUnit},
		{"gap", []uint32{1, 2, 5}, ErrGap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Template{Values: tt.values}.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestValidate_MaskKeys(t *testing.T) {
	tpl := binary()
	tpl.DirectionMasks["2"] = "North"
	assert.ErrorIs(t, tpl.Validate(), ErrUnknownMaskBits)
}

func TestDecode(t *testing.T) {
	tpl := binary()

	idx, err := tpl.Decode(13)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 0}, idx)

	idx, err = tpl.Decode(0)
	require.NoError(t, err)
	assert.Empty(t, idx)

	_, err = tpl.Decode(256)
	assert.ErrorIs(t, err, ErrOutOfCapacity)
}

func TestDecode_EveryCountIsReachable(t *testing.T) {
	tpl := Template{Values: []uint32{1, 1, 3, 5, 10, 20}}
	require.NoError(t, tpl.Validate())

	for n := uint32(0); n <= uint32(tpl.Capacity()); n++ {
		idx, err := tpl.Decode(n)
		require.NoError(t, err, "count %d", n)

		var sum uint32
		for _, i := range idx {
			sum += tpl.Values[i]
		}
		assert.Equal(t, n, sum)
	}
}

func TestDirectionBits(t *testing.T) {
	tpl := binary()
	assert.Equal(t, [2]bool{false, false}, tpl.DirectionBits(core.North))
	assert.Equal(t, [2]bool{false, true}, tpl.DirectionBits(core.East))
	assert.Equal(t, [2]bool{true, false}, tpl.DirectionBits(core.South))
	assert.Equal(t, [2]bool{true, true}, tpl.DirectionBits(core.West))

	delete(tpl.DirectionMasks, "11")
	assert.Equal(t, [2]bool{false, false}, tpl.DirectionBits(core.West))
}

func TestCalculate(t *testing.T) {
	layout, err := Calculate(binary(), 5, 130, core.East)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, layout.Red)
	assert.Equal(t, []int{7, 1}, layout.Blue)
	assert.Equal(t, [2]bool{false, true}, layout.Direction)

	_, err = Calculate(Template{Values: []uint32{2}}, 1, 1, core.East)
	assert.ErrorIs(t, err, ErrNoUnit)

	_, err = Calculate(binary(), 1000, 1, core.East)
	assert.ErrorIs(t, err, ErrOutOfCapacity)
}
