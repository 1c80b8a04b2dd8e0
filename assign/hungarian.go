package assign

import (
	"fmt"
	"math"
)

// Hungarian solves the rectangular minimum-cost assignment problem. cost is
// indexed [row][col]. The result maps each row to its column, or -1 for rows
// left unmatched when there are more rows than columns. Every row is matched
// when rows <= cols.
//
// Shortest augmenting path with row/column potentials, O(n²m).
func Hungarian(cost [][]float64) ([]int, error) {
	n := len(cost)
	if n == 0 {
		return nil, nil
	}
	m := len(cost[0])
	for i, row := range cost {
		if len(row) != m {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInfeasible, i, len(row), m)
		}
		for j, c := range row {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, fmt.Errorf("%w: cost[%d][%d] is %v", ErrInfeasible, i, j, c)
			}
		}
	}

	if n > m {
		colToRow, err := Hungarian(transpose(cost))
		if err != nil {
			return nil, err
		}
		rowToCol := filled(n, -1)
		for c, r := range colToRow {
			if r >= 0 {
				rowToCol[r] = c
			}
		}
		return rowToCol, nil
	}

	// 1-indexed; column 0 is a virtual column used to start each augmentation.
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	p := make([]int, m+1)   // p[j] is the row matched to column j, 0 if free
	way := make([]int, m+1) // previous column on the augmenting path
	minv := make([]float64, m+1)
	used := make([]bool, m+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 == 0 {
				return nil, fmt.Errorf("%w: no augmenting path for row %d", ErrInfeasible, i-1)
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	result := filled(n, -1)
	for j := 1; j <= m; j++ {
		if p[j] != 0 {
			result[p[j]-1] = j - 1
		}
	}
	return result, nil
}

func transpose(cost [][]float64) [][]float64 {
	if len(cost) == 0 {
		return nil
	}
	out := make([][]float64, len(cost[0]))
	for j := range out {
		out[j] = make([]float64, len(cost))
		for i := range cost {
			out[j][i] = cost[i][j]
		}
	}
	return out
}

func filled(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
