// internal/journal/journal.go
//
// The journal is the durable record of completed missions: newest first,
// append-only at the head, persisted as a full snapshot on every change.

package journal

// ImpactRecord captures one completed mission. Identity is assigned at
// creation; records are never mutated or deleted afterwards.
type ImpactRecord struct {
	ID              string `json:"id"`
	ActivityTitle   string `json:"activityTitle"`
	Topic           string `json:"topic"`
	PhotoPath       string `json:"photoPath,omitempty"`
	Timestamp       int64  `json:"timestamp"` // epoch milliseconds
	DurationMinutes int    `json:"durationMinutes"`
}

// Store persists the journal. The flow controller is the only writer;
// everything else reads through it.
type Store interface {
	Load() ([]ImpactRecord, error)
	Save(records []ImpactRecord) error
}

// Prepend returns the journal with record at the head, ready for Save.
func Prepend(records []ImpactRecord, record ImpactRecord) []ImpactRecord {
	out := make([]ImpactRecord, 0, len(records)+1)
	out = append(out, record)
	out = append(out, records...)
	return out
}
