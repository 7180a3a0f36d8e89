package station

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator generates unique IDs for records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// UUIDGenerator generates random UUIDs
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// SystemClock provides the server's local time
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
