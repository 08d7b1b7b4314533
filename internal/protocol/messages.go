package protocol

// Server -> client payloads. Client -> server payloads are read through
// Fields so that unknown or reordered keys never break a handler.

const (
	StatusWaiting = "WAITING"
	StatusMatched = "MATCHED"
)

type LoginOKPayload struct {
	Username string `json:"username"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

type QueueStatusPayload struct {
	Status string `json:"status"`
}

type GameStartPayload struct {
	GameID      string `json:"gameId"`
	Mode        string `json:"mode"`
	Round       int    `json:"round"`
	TotalRounds int    `json:"totalRounds"`
	XWins       int    `json:"xWins"`
	OWins       int    `json:"oWins"`
	WinsNeeded  int    `json:"winsNeeded"`
	YourSymbol  string `json:"yourSymbol"`
	Opponent    string `json:"opponent"`
	BoardSize   int    `json:"boardSize"`
	TimeLimit   int    `json:"timeLimit"`
	Turbo       bool   `json:"turbo"`
}

type GameStatePayload struct {
	GameID     string     `json:"gameId"`
	BoardSize  int        `json:"boardSize"`
	Board      [][]string `json:"board"`
	NextPlayer string     `json:"nextPlayer"`
}

type TimeoutPayload struct {
	GameID   string `json:"gameId"`
	TimedOut string `json:"timedOut"`
	Message  string `json:"message"`
}

type RoundEndPayload struct {
	GameID      string  `json:"gameId"`
	RoundWinner string  `json:"roundWinner"`
	SeriesOver  bool    `json:"seriesOver"`
	Winner      string  `json:"winner,omitempty"`
	WinnerUser  *string `json:"winnerUser"`
	LoserUser   *string `json:"loserUser"`
	Round       int     `json:"round"`
	TotalRounds int     `json:"totalRounds"`
	XWins       int     `json:"xWins"`
	OWins       int     `json:"oWins"`
	WinsNeeded  int     `json:"winsNeeded"`
}
