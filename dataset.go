package kmedoids

import (
	"fmt"
	"math"
)

// dataset holds the input matrix flattened point-major: point i occupies
// data[i*dims : (i+1)*dims]. newDataset copies the input rows into this
// slice, so a fit holds its own copy of the values; the engine never
// mutates them.
type dataset struct {
	data []float64
	n    int
	dims int
}

func (ds *dataset) point(i int) []float64 {
	return ds.data[i*ds.dims : (i+1)*ds.dims]
}

// newDataset validates and flattens input rows (one point per row).
func newDataset(rows [][]float64) (*dataset, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("kmedoids: empty dataset")
	}
	dims := len(rows[0])
	if dims == 0 {
		return nil, fmt.Errorf("kmedoids: empty dataset (points have zero dimensions)")
	}

	flat := make([]float64, n*dims)
	for i, row := range rows {
		if len(row) != dims {
			return nil, fmt.Errorf("kmedoids: point %d has %d dimensions, expected %d", i, len(row), dims)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("kmedoids: non-finite value in X at point %d, dim %d", i, j)
			}
		}
		copy(flat[i*dims:], row)
	}

	return &dataset{data: flat, n: n, dims: dims}, nil
}
