package domain

// Winner returns the mark owning a full row, column or diagonal, or Empty.
// A line needs all N cells of an N×N board.
func Winner(board Board) Mark {
	n := len(board)
	if n == 0 {
		return Empty
	}

	for r := 0; r < n; r++ {
		if m := lineOwner(board, r, 0, 0, 1); m != Empty {
			return m
		}
	}
	for c := 0; c < n; c++ {
		if m := lineOwner(board, 0, c, 1, 0); m != Empty {
			return m
		}
	}
	if m := lineOwner(board, 0, 0, 1, 1); m != Empty {
		return m
	}
	return lineOwner(board, 0, n-1, 1, -1)
}

// walks n cells from (row, col) and reports the mark if they all match
func lineOwner(board Board, row, col, deltaRow, deltaCol int) Mark {
	first := board[row][col]
	if first == Empty {
		return Empty
	}
	for i := 1; i < len(board); i++ {
		row += deltaRow
		col += deltaCol
		if board[row][col] != first {
			return Empty
		}
	}
	return first
}

// RoundResult reports whether the round is over and, if so, its winner.
// A finished round with an Empty winner is a draw.
func RoundResult(board Board) (winner Mark, finished bool) {
	if w := Winner(board); w != Empty {
		return w, true
	}
	return Empty, board.IsFull()
}
