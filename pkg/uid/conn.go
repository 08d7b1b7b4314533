package uid

import "github.com/google/uuid"

// GenerateConnID identifies one client connection for the lifetime of the
// process. It is never shown to players.
func GenerateConnID() string {
	return "c-" + uuid.NewString()
}
