package solver

import (
	"testing"

	"github.com/PearlCalc/extension/pkg/core"
	"github.com/stretchr/testify/assert"
)

func result(red, blue, vertical, tick uint32, distance float64) core.SolveResult {
	return core.SolveResult{
		Red:      red,
		Blue:     blue,
		Vertical: vertical,
		Total:    red + blue + vertical,
		Tick:     tick,
		Distance: distance,
	}
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name string
		in   []core.SolveResult
		want []core.SolveResult
	}{
		{
			name: "empty",
			in:   nil,
			want: []core.SolveResult{},
		},
		{
			name: "same key equal distance keeps earlier tick",
			in: []core.SolveResult{
				result(10, 4, 0, 30, 0.5),
				result(10, 4, 0, 12, 0.5),
				result(10, 4, 0, 21, 0.5),
			},
			want: []core.SolveResult{result(10, 4, 0, 12, 0.5)},
		},
		{
			name: "same key keeps closer hit over earlier tick",
			in: []core.SolveResult{
				result(10, 4, 0, 5, 0.9),
				result(10, 4, 0, 40, 0.1),
			},
			want: []core.SolveResult{result(10, 4, 0, 40, 0.1)},
		},
		{
			name: "vertical count is part of the key",
			in: []core.SolveResult{
				result(10, 4, 0, 20, 0.5),
				result(10, 4, 2, 20, 0.5),
			},
			want: []core.SolveResult{
				result(10, 4, 0, 20, 0.5),
				result(10, 4, 2, 20, 0.5),
			},
		},
		{
			name: "sorted by distance tick total red blue",
			in: []core.SolveResult{
				result(3, 9, 0, 20, 0.5),
				result(9, 3, 0, 20, 0.5),
				result(1, 1, 0, 50, 0.2),
				result(4, 4, 0, 20, 0.5),
				result(6, 6, 0, 10, 0.5),
				result(2, 2, 0, 5, 0.8),
			},
			want: []core.SolveResult{
				result(1, 1, 0, 50, 0.2),
				result(6, 6, 0, 10, 0.5),
				result(4, 4, 0, 20, 0.5),
				result(3, 9, 0, 20, 0.5),
				result(9, 3, 0, 20, 0.5),
				result(2, 2, 0, 5, 0.8),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reduce(tt.in))
		})
	}
}

func TestReduce_IgnoresInputOrder(t *testing.T) {
	in := []core.SolveResult{
		result(7, 2, 0, 33, 1.5),
		result(7, 2, 0, 18, 1.5),
		result(5, 5, 0, 18, 1.5),
		result(1, 8, 0, 60, 0.25),
	}
	reversed := []core.SolveResult{in[3], in[2], in[1], in[0]}

	assert.Equal(t, reduce(in), reduce(reversed))
	assert.Equal(t, []core.SolveResult{
		result(1, 8, 0, 60, 0.25),
		result(7, 2, 0, 18, 1.5),
		result(5, 5, 0, 18, 1.5),
	}, reduce(in))
}
