package uid

import "github.com/google/uuid"

// GenerateGameID returns a random UUID identifying one game session.
func GenerateGameID() string {
	return uuid.NewString()
}
