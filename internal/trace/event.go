package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
	// KindError represents a contract violation or recovered panic.
	KindError
	KindHeartbeat // periodic liveness signal
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindError:
		return "error"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	// ScopeHost represents host loop operations (frames, recordings).
	ScopeHost Scope = iota + 1
	// ScopeStep represents a single runtime Step call.
	ScopeStep
	// ScopeTask represents per-task lifecycle changes.
	ScopeTask
	ScopeWake // individual timer and wake events
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeHost:
		return "host"
	case ScopeStep:
		return "step"
	case ScopeTask:
		return "task"
	case ScopeWake:
		return "wake"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Extra    map[string]string // extensible key-value pairs
	Name     string            // e.g. "step", "task.park"
	Detail   string            // optional detail message
	Seq      uint64            // global sequence number (monotonic)
	SpanID   uint64            // unique span identifier
	ParentID uint64            // parent span (0 if root)
	GID      uint64            // goroutine ID
	Kind     Kind
	Scope    Scope
}
