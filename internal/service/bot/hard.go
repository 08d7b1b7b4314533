package bot

import (
	"math"
	"math/rand/v2"

	"github.com/kevbol04/JuegoMultijugador/internal/domain"
)

const (
	MINIMAX_WIN  = 10
	MINIMAX_LOSS = -10
	MINIMAX_DRAW = 0

	// depth of the search on boards larger than 3x3, where a full search is
	// too slow to run inline with a move
	LARGE_BOARD_DEPTH = 3
)

// calculateHardMove plays perfectly on 3x3 with a full minimax search. On
// larger boards it takes an immediate win or block and otherwise runs a
// depth-limited alpha-beta search over the line evaluator.
func calculateHardMove(board domain.Board, botMark domain.Mark) domain.Cell {
	if board.Size() <= domain.MinBoardSize {
		return bestMove(board, botMark, len(board.EmptyCells()))
	}

	if cell, ok := tacticalMove(board, botMark); ok {
		return cell
	}
	return bestMove(board, botMark, LARGE_BOARD_DEPTH)
}

// bestMove runs minimax from the bot's point of view and breaks ties
// between equally scored cells randomly.
func bestMove(board domain.Board, botMark domain.Mark, depth int) domain.Cell {
	cells := board.EmptyCells()
	opponent := botMark.Opponent()

	bestScore := math.MinInt32
	best := []domain.Cell{}

	for _, cell := range cells {
		testBoard, err := domain.SimulateMove(board, cell, botMark)
		if err != nil {
			continue
		}

		score := minimax(testBoard, depth-1, 1, math.MinInt32, math.MaxInt32, false, botMark, opponent)
		switch {
		case score > bestScore:
			bestScore = score
			best = []domain.Cell{cell}
		case score == bestScore:
			best = append(best, cell)
		}
	}

	if len(best) == 0 {
		return cells[rand.IntN(len(cells))]
	}
	return best[rand.IntN(len(best))]
}

// minimax with alpha-beta pruning. ply counts the moves already played in
// the search so quicker wins and slower losses score better.
func minimax(board domain.Board, depth, ply int, alpha, beta int, isMaximizing bool, botMark, opponent domain.Mark) int {
	winner, finished := domain.RoundResult(board)
	switch {
	case winner == botMark:
		return MINIMAX_WIN*scale(board) - ply
	case winner == opponent:
		return MINIMAX_LOSS*scale(board) + ply
	case finished:
		return MINIMAX_DRAW
	case depth <= 0:
		return evaluateBoard(board, botMark, opponent)
	}

	if isMaximizing {
		maxEval := math.MinInt32
		for _, cell := range board.EmptyCells() {
			board[cell.Row][cell.Col] = botMark
			eval := minimax(board, depth-1, ply+1, alpha, beta, false, botMark, opponent)
			board[cell.Row][cell.Col] = domain.Empty

			maxEval = max(maxEval, eval)
			alpha = max(alpha, eval)
			if beta <= alpha {
				break
			}
		}
		return maxEval
	}

	minEval := math.MaxInt32
	for _, cell := range board.EmptyCells() {
		board[cell.Row][cell.Col] = opponent
		eval := minimax(board, depth-1, ply+1, alpha, beta, true, botMark, opponent)
		board[cell.Row][cell.Col] = domain.Empty

		minEval = min(minEval, eval)
		beta = min(beta, eval)
		if beta <= alpha {
			break
		}
	}
	return minEval
}

// terminal scores must dominate any heuristic value on big boards
func scale(board domain.Board) int {
	if board.Size() <= domain.MinBoardSize {
		return 1
	}
	return 10000
}
