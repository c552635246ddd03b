package mot

import "math"

// kuhnMunkres solves rectangular assignment over cost matrix and returns assignment[row] = column or -1.
//
// Pairs with cost above maxCost are forbidden. Result maximizes the number of matched feasible pairs
// and, among such assignments, minimizes total cost: forbidden pairs and padding share one penalty
// that is larger than any possible sum of feasible costs.
func kuhnMunkres(cost [][]float64, maxCost float64) []int {
	numRows, numCols := matrixDims(cost)
	assignment := make([]int, numRows)
	for i := range assignment {
		assignment[i] = -1
	}
	if numRows == 0 || numCols == 0 {
		return assignment
	}

	minFeasible, maxFeasible := math.Inf(1), math.Inf(-1)
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			if cost[i][j] <= maxCost {
				minFeasible = math.Min(minFeasible, cost[i][j])
				maxFeasible = math.Max(maxFeasible, cost[i][j])
			}
		}
	}
	if math.IsInf(minFeasible, 1) {
		return assignment
	}

	// Square matrix; feasible costs shifted to [0, span]
	dim := maxInt(numRows, numCols)
	span := maxFeasible - minFeasible
	penalty := float64(dim)*(span+1) + 1
	c := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		c[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			c[i][j] = penalty
			if i < numRows && j < numCols && cost[i][j] <= maxCost {
				c[i][j] = cost[i][j] - minFeasible
			}
		}
	}

	// Kuhn-Munkres with potentials, 1-indexed; column 0 is virtual
	const inf = math.MaxFloat64 / 2
	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	p := make([]int, dim+1)
	way := make([]int, dim+1)
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0
		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 {
				break
			}
			for j := 0; j <= dim; j++ {
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
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	for j := 1; j <= dim; j++ {
		row, col := p[j]-1, j-1
		if row < 0 || row >= numRows || col >= numCols {
			continue
		}
		if cost[row][col] <= maxCost {
			assignment[row] = col
		}
	}
	return assignment
}

// assignmentScore returns number of matches and their total cost
func assignmentScore(matches [][2]int, cost [][]float64) (int, float64) {
	total := 0.0
	for _, match := range matches {
		total += cost[match[0]][match[1]]
	}
	return len(matches), total
}
