package drive

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies created_at timestamps for folders, files and versions.
type Clock interface {
	Now() time.Time
}

// RealClock returns the current time in UTC so stored timestamps sort
// lexically in SQLite.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator produces the random part of blob keys.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
