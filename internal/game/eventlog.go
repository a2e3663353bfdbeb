package game

import "time"

// LogKind classifies a narrated event.
type LogKind string

const (
	LogSystem    LogKind = "system"
	LogInfo      LogKind = "info"
	LogAction    LogKind = "action"
	LogChallenge LogKind = "challenge"
	LogBlock     LogKind = "block"
	LogPass      LogKind = "pass"
	LogLoss      LogKind = "loss"
)

// Outcome is the optional result attached to an event.
type Outcome string

const (
	OutcomeNone       Outcome = ""
	OutcomeSuccess    Outcome = "success"
	OutcomeLost       Outcome = "lost"
	OutcomeEliminated Outcome = "eliminated"
)

// LogEntry is one narrated event. Claim, when set, is the character Seats[0] claimed.
type LogEntry struct {
	ID      uint64    `json:"id"`
	Message string    `json:"message"`
	Kind    LogKind   `json:"kind"`
	Outcome Outcome   `json:"outcome,omitempty"`
	Seats   []int     `json:"players"`
	Claim   Character `json:"claim,omitempty"`
	Time    time.Time `json:"ts"`
}

// EventLog is a fixed-capacity ring of entries with monotonically increasing ids.
type EventLog struct {
	buf   []LogEntry
	start int
	size  int
	seq   uint64
}

// NewEventLog returns a log that keeps the newest capacity entries.
func NewEventLog(capacity int) *EventLog {
	if capacity < 1 {
		capacity = 1
	}
	return &EventLog{buf: make([]LogEntry, capacity)}
}

// Append stamps e with the next id and stores it, dropping the oldest entry when full.
func (l *EventLog) Append(e LogEntry) LogEntry {
	l.seq++
	e.ID = l.seq
	if l.size < len(l.buf) {
		l.buf[(l.start+l.size)%len(l.buf)] = e
		l.size++
		return e
	}
	l.buf[l.start] = e
	l.start = (l.start + 1) % len(l.buf)
	return e
}

// Len is the number of retained entries.
func (l *EventLog) Len() int {
	return l.size
}

// Recent returns up to n of the newest entries, oldest first.
func (l *EventLog) Recent(n int) []LogEntry {
	if n > l.size || n < 0 {
		n = l.size
	}
	out := make([]LogEntry, 0, n)
	for i := l.size - n; i < l.size; i++ {
		e := l.buf[(l.start+i)%len(l.buf)]
		e.Seats = append([]int(nil), e.Seats...)
		out = append(out, e)
	}
	return out
}

// LastClaim scans newest-first for the last character seat claimed.
// Claims are not stored anywhere else once the pending action is cleared.
func (l *EventLog) LastClaim(seat int) (Character, bool) {
	for i := l.size - 1; i >= 0; i-- {
		e := l.buf[(l.start+i)%len(l.buf)]
		if e.Claim != NoCharacter && len(e.Seats) > 0 && e.Seats[0] == seat {
			return e.Claim, true
		}
	}
	return NoCharacter, false
}
