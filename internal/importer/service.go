// Package importer orchestrates the CSV import pipeline: parse, propose a
// column mapping, wait for operator confirmation, then commit row by row
// with per-row failure isolation.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledoux/bakehouse/internal/mapping"
	"github.com/ledoux/bakehouse/internal/tabular"
)

// Config holds the pipeline's tunables.
type Config struct {
	// PreviewRows is how many rows the upload response includes.
	PreviewRows int
	// CommitWorkers bounds the parallelism of a batch commit.
	CommitWorkers int
	// SessionTTL is how long an idle session survives before it is pruned.
	SessionTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.PreviewRows <= 0 {
		c.PreviewRows = 10
	}
	if c.CommitWorkers <= 0 {
		c.CommitWorkers = 4
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	return c
}

// Service owns the active import sessions.
type Service struct {
	stores Stores
	cfg    Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService creates a Service over the given repositories.
func NewService(stores Stores, cfg Config) *Service {
	return &Service{
		stores:   stores,
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// PreviewRow is one sample row in the upload response.
type PreviewRow struct {
	Line   int               `json:"line"`
	Values map[string]string `json:"values"`
}

// Preview is the upload response: what was parsed plus the proposed mapping
// for the operator to confirm or correct.
type Preview struct {
	SessionID       string          `json:"sessionId"`
	Kind            string          `json:"kind"`
	Headers         []string        `json:"headers"`
	Rows            []PreviewRow    `json:"previewRows"`
	ProposedMapping mapping.Mapping `json:"proposedMapping"`
	TotalRows       int             `json:"totalRowCount"`
}

// Begin parses an uploaded file and opens a session for it. Filenames ending
// in .xlsx go through the workbook parser; everything else is treated as
// delimited text. A parse failure is fatal: no session is created.
func (s *Service) Begin(kind, fileName string, data []byte) (*Preview, error) {
	def, ok := Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("unknown import kind %q", kind)
	}

	sess := &Session{
		ID:         uuid.NewString(),
		Kind:       kind,
		FileName:   fileName,
		state:      StateAwaitingFile,
		lastActive: time.Now(),
	}

	var table *tabular.Table
	var err error
	if strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		table, err = tabular.ParseXLSX(data)
	} else {
		table, err = tabular.Parse(string(tabular.SanitizeUTF8(data)))
	}
	if err != nil {
		return nil, err
	}
	sess.table = table
	sess.state = StatePreviewing

	sess.mapping = mapping.Propose(table.Headers, def.MapFields())
	sess.state = StateAwaitingMapping

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	preview := &Preview{
		SessionID:       sess.ID,
		Kind:            kind,
		Headers:         table.Headers,
		ProposedMapping: sess.mapping,
		TotalRows:       len(table.Rows),
	}
	for i, row := range table.Rows {
		if i >= s.cfg.PreviewRows {
			break
		}
		preview.Rows = append(preview.Rows, PreviewRow{Line: row.Line, Values: row.Values})
	}

	slog.Info("import session opened",
		"session_id", sess.ID,
		"kind", kind,
		"file", fileName,
		"rows", len(table.Rows),
	)
	return preview, nil
}

// Get returns a session snapshot.
func (s *Service) Get(id string) (Status, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Status{}, err
	}
	sess.touch()
	return sess.status(), nil
}

// ConfirmMapping applies the operator's overrides and validates the result.
// Entries map dbField to a header from the file, or to the empty string to
// unmap. Validation failure leaves the session in AwaitingMapping so the
// operator can correct and retry.
func (s *Service) ConfirmMapping(id string, entries map[string]string) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	def, _ := Lookup(sess.Kind)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastActive = time.Now()

	switch sess.state {
	case StateCommitting:
		return ErrCommitInProgress
	case StateComplete:
		return ErrSessionComplete
	}

	m := sess.mapping
	for dbField, header := range entries {
		if _, ok := m[dbField]; !ok {
			return fmt.Errorf("unknown field %q for kind %s", dbField, sess.Kind)
		}
		if header != "" && !mapping.HasHeader(sess.table.Headers, header) {
			return fmt.Errorf("header %q not present in file", header)
		}
		m = mapping.Apply(m, dbField, header)
	}

	if err := mapping.Validate(m, def.MapFields()); err != nil {
		sess.mapping = m
		sess.confirmed = false
		return err
	}

	sess.mapping = m
	sess.confirmed = true
	return nil
}

// Commit runs the batch for a confirmed session. Concurrent commits on the
// same session are rejected. Row failures never surface as an error here;
// they are accounted in the Outcome.
func (s *Service) Commit(ctx context.Context, id string, ownerID int64) (*Outcome, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	def, _ := Lookup(sess.Kind)

	sess.mu.Lock()
	switch sess.state {
	case StateCommitting:
		sess.mu.Unlock()
		return nil, ErrCommitInProgress
	case StateComplete:
		sess.mu.Unlock()
		return nil, ErrSessionComplete
	}
	if !sess.confirmed {
		sess.mu.Unlock()
		return nil, ErrMappingNotConfirmed
	}
	if err := mapping.Validate(sess.mapping, def.MapFields()); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	sess.state = StateCommitting
	table, m := sess.table, sess.mapping
	sess.mu.Unlock()

	start := time.Now()
	outcome := s.runBatch(ctx, def, table, m, ownerID)

	sess.mu.Lock()
	sess.state = StateComplete
	sess.outcome = outcome
	sess.lastActive = time.Now()
	sess.mu.Unlock()

	slog.Info("import committed",
		"session_id", id,
		"kind", sess.Kind,
		"succeeded", outcome.SuccessCount,
		"failed", outcome.FailureCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return outcome, nil
}

// Discard removes a session. Safe to call at any point after a row
// completes; committed rows stay committed.
func (s *Service) Discard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// StartJanitor prunes idle sessions until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context) {
	interval := s.cfg.SessionTTL / 2
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pruneIdle()
		}
	}
}

func (s *Service) pruneIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.idle(s.cfg.SessionTTL) {
			delete(s.sessions, id)
			slog.Debug("pruned idle import session", "session_id", id)
		}
	}
}

func (s *Service) lookup(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}
