package domain

// Board is a square grid indexed [row][col].
type Board [][]Mark

type Cell struct {
	Row int
	Col int
}

func NewBoard(size int) Board {
	board := make(Board, size)
	for i := range board {
		board[i] = make([]Mark, size)
	}
	return board
}

func (b Board) Size() int {
	return len(b)
}

func (b Board) InRange(row, col int) bool {
	return row >= 0 && row < len(b) && col >= 0 && col < len(b)
}

// Place writes m into an empty in-range cell.
func (b Board) Place(row, col int, m Mark) error {
	if !b.InRange(row, col) {
		return ErrOutOfRange
	}
	if b[row][col] != Empty {
		return ErrCellOccupied
	}
	b[row][col] = m
	return nil
}

func (b Board) IsFull() bool {
	for _, row := range b {
		for _, cell := range row {
			if cell == Empty {
				return false
			}
		}
	}
	return true
}

// EmptyCells lists the free cells in row-major order.
func (b Board) EmptyCells() []Cell {
	cells := []Cell{}
	for r, row := range b {
		for c, cell := range row {
			if cell == Empty {
				cells = append(cells, Cell{Row: r, Col: c})
			}
		}
	}
	return cells
}

// Strings renders the wire form: "" for empty, "X" or "O" otherwise.
func (b Board) Strings() [][]string {
	out := make([][]string, len(b))
	for r, row := range b {
		out[r] = make([]string, len(row))
		for c, cell := range row {
			out[r][c] = string(cell)
		}
	}
	return out
}

// this creates a deep copy of the board
func CopyBoard(board Board) Board {
	newBoard := make(Board, len(board))
	for i := range board {
		newBoard[i] = make([]Mark, len(board[i]))
		copy(newBoard[i], board[i])
	}
	return newBoard
}

// this will simulate a move on a copy and give the result to the caller
func SimulateMove(board Board, cell Cell, m Mark) (Board, error) {
	newBoard := CopyBoard(board)
	if err := newBoard.Place(cell.Row, cell.Col, m); err != nil {
		return nil, err
	}
	return newBoard, nil
}
