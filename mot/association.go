package mot

import (
	"sort"

	"github.com/arthurkushman/go-hungarian"
)

// InfeasibleCost marks pairs rejected by gating. Associators never match them
const InfeasibleCost = 1e6

// Associator solves assignment over cost matrix (rows = tracks, columns = detections).
// Returns matched (row, column) pairs plus rows and columns left unmatched.
// Every row and every column appears exactly once across the three results.
type Associator interface {
	Associate(cost [][]float64) (matches [][2]int, unmatchedRows, unmatchedCols []int)
}

// NewAssociator builds associator selected by configuration
func NewAssociator(cfg AssociationConfig) Associator {
	switch cfg.Algorithm {
	case AssociationGreedy:
		return NewGreedyAssociator(1.0)
	default:
		return NewHungarianAssociator(1.0)
	}
}

// HungarianAssociator finds globally optimal assignment: the largest number of feasible matches
// and, among those, the smallest total cost.
type HungarianAssociator struct {
	// Pairs with cost above MaxCost are never matched
	MaxCost float64
}

// NewHungarianAssociator creates Hungarian (Kuhn-Munkres) associator
func NewHungarianAssociator(maxCost float64) *HungarianAssociator {
	return &HungarianAssociator{MaxCost: maxCost}
}

// Associate implements Associator
func (ha *HungarianAssociator) Associate(cost [][]float64) ([][2]int, []int, []int) {
	numRows, numCols := matrixDims(cost)
	if numRows == 0 || numCols == 0 {
		return [][2]int{}, sequence(numRows), sequence(numCols)
	}

	candidates := ha.solveMax(cost, numRows, numCols)

	// hungarian.SolveMax may stop at a suboptimal assignment (feasible pairs left unmatched),
	// so its result is checked against potentials-based Kuhn-Munkres and replaced when worse
	reference := make([][2]int, 0, numRows)
	for row, col := range kuhnMunkres(cost, ha.MaxCost) {
		if col >= 0 {
			reference = append(reference, [2]int{row, col})
		}
	}
	gotCount, gotCost := assignmentScore(candidates, cost)
	refCount, refCost := assignmentScore(reference, cost)
	if gotCount < refCount || (gotCount == refCount && gotCost > refCost+1e-9) {
		candidates = reference
	}
	return finalizeMatches(candidates, numRows, numCols)
}

func (ha *HungarianAssociator) solveMax(cost [][]float64, numRows, numCols int) [][2]int {
	// Hungarian solver maximizes, so turn costs into similarities.
	// Matrix is padded to square with zeros (lowest similarity)
	paddedSize := maxInt(numRows, numCols)
	similarity := make([][]float64, paddedSize)
	for i := 0; i < paddedSize; i++ {
		similarity[i] = make([]float64, paddedSize)
	}
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			if cost[i][j] <= ha.MaxCost {
				// Shifted by one so that feasible pair with cost == MaxCost still beats padding
				similarity[i][j] = ha.MaxCost - cost[i][j] + 1.0
			}
		}
	}

	assignments := hungarian.SolveMax(similarity)

	candidates := make([][2]int, 0, numRows)
	usedCols := make(map[int]struct{}, numCols)
	for row, rowMap := range assignments {
		for col := range rowMap {
			if row < numRows && col < numCols && cost[row][col] <= ha.MaxCost {
				if _, ok := usedCols[col]; !ok {
					usedCols[col] = struct{}{}
					candidates = append(candidates, [2]int{row, col})
				}
			}
			break
		}
	}
	return candidates
}

// GreedyAssociator matches the cheapest feasible pair first, repeatedly.
type GreedyAssociator struct {
	// Pairs with cost above MaxCost are never matched
	MaxCost float64
}

// NewGreedyAssociator creates greedy associator
func NewGreedyAssociator(maxCost float64) *GreedyAssociator {
	return &GreedyAssociator{MaxCost: maxCost}
}

// Associate implements Associator
func (ga *GreedyAssociator) Associate(cost [][]float64) ([][2]int, []int, []int) {
	numRows, numCols := matrixDims(cost)
	if numRows == 0 || numCols == 0 {
		return [][2]int{}, sequence(numRows), sequence(numCols)
	}
	priorityQueue := make(pairHeap, 0, numRows*numCols)
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			if cost[i][j] <= ga.MaxCost {
				priorityQueue.Push(candidatePair{row: i, col: j, cost: cost[i][j]})
			}
		}
	}
	// We need to prevent double assignment of rows and columns
	reservedRows := make(map[int]struct{}, numRows)
	reservedCols := make(map[int]struct{}, numCols)
	candidates := make([][2]int, 0, numRows)
	for priorityQueue.Len() > 0 {
		pair := priorityQueue.Pop()
		if _, ok := reservedRows[pair.row]; ok {
			continue
		}
		if _, ok := reservedCols[pair.col]; ok {
			continue
		}
		reservedRows[pair.row] = struct{}{}
		reservedCols[pair.col] = struct{}{}
		candidates = append(candidates, [2]int{pair.row, pair.col})
	}
	return finalizeMatches(candidates, numRows, numCols)
}

// finalizeMatches sorts matches by row and collects unmatched rows/columns in ascending order
func finalizeMatches(matches [][2]int, numRows, numCols int) ([][2]int, []int, []int) {
	sort.Slice(matches, func(i, j int) bool {
		return matches[i][0] < matches[j][0]
	})
	rowMatched := make([]bool, numRows)
	colMatched := make([]bool, numCols)
	for _, match := range matches {
		rowMatched[match[0]] = true
		colMatched[match[1]] = true
	}
	unmatchedRows := make([]int, 0)
	for i, ok := range rowMatched {
		if !ok {
			unmatchedRows = append(unmatchedRows, i)
		}
	}
	unmatchedCols := make([]int, 0)
	for j, ok := range colMatched {
		if !ok {
			unmatchedCols = append(unmatchedCols, j)
		}
	}
	return matches, unmatchedRows, unmatchedCols
}

func matrixDims(cost [][]float64) (int, int) {
	if len(cost) == 0 {
		return 0, 0
	}
	return len(cost), len(cost[0])
}

func sequence(n int) []int {
	seq := make([]int, n)
	for i := range seq {
		seq[i] = i
	}
	return seq
}

// costMatrix builds association cost between predicted tracks (rows) and detections (columns).
// Positional term is normalized so that gate is exactly 1.0; gated pairs get InfeasibleCost.
// When both sides carry appearance features, cosine distance is blended in with AppearanceWeight
func costMatrix(tracks []*Track, detections []Detection, cfg AssociationConfig) [][]float64 {
	cost := make([][]float64, len(tracks))
	for i, track := range tracks {
		row := make([]float64, len(detections))
		predictedBBox := track.GetBBox()
		predictedCenter := predictedBBox.Center()
		for j, det := range detections {
			var positional float64
			switch cfg.Metric {
			case CostIoU:
				iouValue := IoU(predictedBBox, det.BBox())
				if iouValue < cfg.MinIoU || iouValue == 0 {
					row[j] = InfeasibleCost
					continue
				}
				positional = 1.0 - iouValue
			default:
				dist := euclideanDistance(predictedCenter, det.Center())
				if dist > cfg.MaxDistance {
					row[j] = InfeasibleCost
					continue
				}
				positional = dist / cfg.MaxDistance
			}
			if cfg.AppearanceWeight > 0 && len(track.feature) > 0 && len(det.Embedding()) > 0 {
				appearance := cosineDistance(track.feature, det.Embedding())
				positional = (1.0-cfg.AppearanceWeight)*positional + cfg.AppearanceWeight*appearance
			}
			row[j] = positional
		}
		cost[i] = row
	}
	return cost
}
