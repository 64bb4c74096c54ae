package sessionids

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Session ids double as storage keys and filename stems, so they are
// restricted to a filesystem- and URL-safe alphabet.
var sessionIDRegex = regexp.MustCompile(`^[a-z0-9-]+$`)

// New returns a fresh session id. UUIDv7 keeps ids unique and roughly
// time-ordered across restarts.
func New() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return id.String(), nil
}

func Valid(id string) bool {
	return id != "" && sessionIDRegex.MatchString(id)
}
