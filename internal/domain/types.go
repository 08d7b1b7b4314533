package domain

import "strings"

// Mark is the content of a board cell and also identifies a seat.
type Mark string

const (
	Empty Mark = ""
	X     Mark = "X"
	O     Mark = "O"
)

func (m Mark) Opponent() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	}
	return Empty
}

type Mode string

const (
	ModePVP Mode = "PVP"
	ModePVE Mode = "PVE"
)

type Difficulty string

const (
	Easy   Difficulty = "EASY"
	Medium Difficulty = "MEDIUM"
	Hard   Difficulty = "HARD"
)

// ParseDifficulty is case-insensitive; anything unrecognised falls back to Easy.
func ParseDifficulty(s string) Difficulty {
	switch d := Difficulty(strings.ToUpper(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d
	}
	return Easy
}

// the literal user the statistics store records for the PvE seat
const AIUser = "AI"

// wire label of a drawn round or series
const Draw = "DRAW"

// basic errors that can occur; the text is sent to the client as is
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrNotInSession     Error = "No estás en una partida"
	ErrNotYourTurn      Error = "No es tu turno"
	ErrOutOfRange       Error = "Movimiento fuera de rango"
	ErrCellOccupied     Error = "Casilla ocupada"
	ErrAlreadyInSession Error = "Ya estás en una partida"
	ErrBadMoveFormat    Error = "Formato MAKE_MOVE inválido"
	ErrLoginRequired    Error = "Debes iniciar sesión primero"
	ErrInvalidUsername  Error = "Nombre de usuario inválido (3-16 caracteres: letras, números o _)"
	ErrUsernameTaken    Error = "El usuario ya está conectado"
	ErrOpponentLeft     Error = "Tu rival se ha desconectado. Partida finalizada."
	ErrIdleClosed       Error = "Partida cerrada por inactividad"
	ErrNoMoves          Error = "no empty cell left"
)

const TimeoutMessage = "Tiempo agotado. Pierdes el turno."
