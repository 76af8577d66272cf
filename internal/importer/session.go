package importer

import (
	"errors"
	"sync"
	"time"

	"github.com/ledoux/bakehouse/internal/mapping"
	"github.com/ledoux/bakehouse/internal/tabular"
)

// State is the import session's position in its linear lifecycle. There is
// no transition back to AwaitingFile; a session is discarded and restarted
// instead of retried in place.
type State string

const (
	StateAwaitingFile    State = "awaiting_file"
	StatePreviewing      State = "previewing"
	StateAwaitingMapping State = "awaiting_mapping"
	StateCommitting      State = "committing"
	StateComplete        State = "complete"
)

var (
	// ErrSessionNotFound covers unknown and expired session ids.
	ErrSessionNotFound = errors.New("import session not found")
	// ErrCommitInProgress rejects a second concurrent commit on one session.
	ErrCommitInProgress = errors.New("commit already in progress for this session")
	// ErrSessionComplete rejects operations on a finished session.
	ErrSessionComplete = errors.New("import session already completed")
	// ErrMappingNotConfirmed blocks commit until the operator confirms.
	ErrMappingNotConfirmed = errors.New("column mapping has not been confirmed")
)

// Session owns a RawTable and its column mapping for the lifetime of one
// upload. All field access goes through the session mutex.
type Session struct {
	ID       string
	Kind     string
	FileName string

	mu         sync.Mutex
	state      State
	table      *tabular.Table
	mapping    mapping.Mapping
	confirmed  bool
	outcome    *Outcome
	lastActive time.Time
}

// Status is the externally visible snapshot of a session.
type Status struct {
	SessionID string          `json:"sessionId"`
	Kind      string          `json:"kind"`
	FileName  string          `json:"fileName"`
	State     State           `json:"state"`
	Mapping   mapping.Mapping `json:"mapping"`
	TotalRows int             `json:"totalRows"`
	Outcome   *Outcome        `json:"outcome,omitempty"`
}

func (s *Session) status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		SessionID: s.ID,
		Kind:      s.Kind,
		FileName:  s.FileName,
		State:     s.state,
		Mapping:   s.mapping,
		TotalRows: len(s.table.Rows),
		Outcome:   s.outcome,
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// idle reports whether the session has been inactive longer than ttl.
// Committing sessions are never idle.
func (s *Session) idle(ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateCommitting && time.Since(s.lastActive) > ttl
}
