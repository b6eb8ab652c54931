package offline

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// TempIDPrefix marks identifiers minted locally for placeholder results.
const TempIDPrefix = "local-"

// NewTempID returns a sortable identifier for a placeholder entity.
func NewTempID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return TempIDPrefix + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewActionID returns the identifier of a queued action.
func NewActionID() string {
	return uuid.NewString()
}
