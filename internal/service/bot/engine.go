package bot

import (
	"github.com/kevbol04/JuegoMultijugador/internal/domain"
)

// Mark is the seat the AI always plays.
const Mark = domain.O

// Strategy is what the session engine asks for an AI move.
type Strategy interface {
	ChooseMove(board domain.Board, difficulty domain.Difficulty) (domain.Cell, error)
}

// Engine is the default Strategy. It holds no state and is safe for
// concurrent use; every search runs on board copies.
type Engine struct{}

func NewEngine() Engine {
	return Engine{}
}

func (Engine) ChooseMove(board domain.Board, difficulty domain.Difficulty) (domain.Cell, error) {
	return ChooseMove(board, difficulty)
}

// ChooseMove selects an empty cell for the AI based on difficulty. It fails
// only when the board has no empty cell left.
func ChooseMove(board domain.Board, difficulty domain.Difficulty) (domain.Cell, error) {
	if len(board.EmptyCells()) == 0 {
		return domain.Cell{}, domain.ErrNoMoves
	}

	switch difficulty {
	case domain.Hard:
		return calculateHardMove(board, Mark), nil
	case domain.Medium:
		return calculateMediumMove(board, Mark), nil
	default:
		return calculateEasyMove(board), nil
	}
}
