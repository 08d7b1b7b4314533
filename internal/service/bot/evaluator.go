package bot

import (
	"github.com/kevbol04/JuegoMultijugador/internal/domain"
)

const (
	POSITION_WEIGHT     = 10  // per mark squared on a line nobody has blocked
	NEAR_COMPLETE_BONUS = 500 // one mark short of a full line
	CENTER_WEIGHT       = 5
)

// evaluateBoard calculates a heuristic score for a non-terminal position.
// Only open lines count: a line holding marks of both players can never be
// completed.
func evaluateBoard(board domain.Board, botMark, opponent domain.Mark) int {
	n := board.Size()
	score := 0

	for _, line := range allLines(n) {
		mine, theirs := 0, 0
		for _, cell := range line {
			switch board[cell.Row][cell.Col] {
			case botMark:
				mine++
			case opponent:
				theirs++
			}
		}

		switch {
		case mine > 0 && theirs == 0:
			score += lineWeight(mine, n)
		case theirs > 0 && mine == 0:
			score -= lineWeight(theirs, n)
		}
	}

	// center preference on odd boards
	if n%2 == 1 {
		switch board[n/2][n/2] {
		case botMark:
			score += CENTER_WEIGHT
		case opponent:
			score -= CENTER_WEIGHT
		}
	}

	return score
}

func lineWeight(count, n int) int {
	w := POSITION_WEIGHT * count * count
	if count == n-1 {
		w += NEAR_COMPLETE_BONUS
	}
	return w
}

// allLines lists every row, column and both diagonals of an n×n board
func allLines(n int) [][]domain.Cell {
	lines := make([][]domain.Cell, 0, 2*n+2)

	for r := 0; r < n; r++ {
		line := make([]domain.Cell, n)
		for c := 0; c < n; c++ {
			line[c] = domain.Cell{Row: r, Col: c}
		}
		lines = append(lines, line)
	}
	for c := 0; c < n; c++ {
		line := make([]domain.Cell, n)
		for r := 0; r < n; r++ {
			line[r] = domain.Cell{Row: r, Col: c}
		}
		lines = append(lines, line)
	}

	diag := make([]domain.Cell, n)
	anti := make([]domain.Cell, n)
	for i := 0; i < n; i++ {
		diag[i] = domain.Cell{Row: i, Col: i}
		anti[i] = domain.Cell{Row: i, Col: n - 1 - i}
	}
	return append(lines, diag, anti)
}
