package bot

import (
	"math/rand/v2"

	"github.com/kevbol04/JuegoMultijugador/internal/domain"
)

// medium flips a coin on every move between the hard and easy play
func calculateMediumMove(board domain.Board, botMark domain.Mark) domain.Cell {
	if rand.IntN(2) == 0 {
		return calculateHardMove(board, botMark)
	}
	return calculateEasyMove(board)
}
