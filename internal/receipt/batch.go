package receipt

import "github.com/zombor/fuel-station/internal/station"

// Stage is a step of receipt ingestion
type Stage int

const (
	StageReceived Stage = iota
	StageRecognizing
	StagePerResultMatching
	StagePersisting
	StageCompleted
	StageErrored
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageRecognizing:
		return "recognizing"
	case StagePerResultMatching:
		return "matching"
	case StagePersisting:
		return "persisting"
	case StageCompleted:
		return "completed"
	case StageErrored:
		return "errored"
	}
	return "unknown"
}

// Outcome is what happened to one recognized receipt. Exactly one of Receipt and Err is set.
type Outcome struct {
	Receipt *station.Receipt
	Err     error
}

// Batch is the result of ingesting one upload, in recognition order
type Batch struct {
	// Upload is the name the image was stored under
	Upload   string
	Outcomes []Outcome
}

// Receipts returns the receipts that were persisted
func (b *Batch) Receipts() []*station.Receipt {
	receipts := make([]*station.Receipt, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		if o.Err == nil && o.Receipt != nil {
			receipts = append(receipts, o.Receipt)
		}
	}
	return receipts
}

// Count returns the number of persisted receipts
func (b *Batch) Count() int {
	return len(b.Receipts())
}

// Failed returns the errors of results that could not be persisted
func (b *Batch) Failed() []error {
	var errs []error
	for _, o := range b.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}
