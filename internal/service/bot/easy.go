package bot

import (
	"math/rand/v2"

	"github.com/kevbol04/JuegoMultijugador/internal/domain"
)

// a uniformly random empty cell; the caller guarantees one exists
func calculateEasyMove(board domain.Board) domain.Cell {
	cells := board.EmptyCells()
	return cells[rand.IntN(len(cells))]
}

// tacticalMove wins now if it can, otherwise blocks the opponent's immediate
// win. ok is false when neither exists.
func tacticalMove(board domain.Board, botMark domain.Mark) (domain.Cell, bool) {
	cells := board.EmptyCells()

	if cell, ok := findWinningCell(board, cells, botMark); ok {
		return cell, true
	}
	return findWinningCell(board, cells, botMark.Opponent())
}

func findWinningCell(board domain.Board, cells []domain.Cell, m domain.Mark) (domain.Cell, bool) {
	for _, cell := range cells {
		testBoard, err := domain.SimulateMove(board, cell, m)
		if err != nil {
			continue
		}
		if domain.Winner(testBoard) == m {
			return cell, true
		}
	}
	return domain.Cell{}, false
}
