package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"testons-go/server/internal/models"
)

// ErrNotFound is returned when a key or session does not exist.
var ErrNotFound = errors.New("not found")

const (
	keyProtocolTasks     = "protocol:tasks"
	keyProtocolTimestamp = "protocol:timestamp"
	keyProtocolSections  = "protocol:sections"
	sessionPrefix        = "session:"
	recordingPrefix      = "recording:"
)

func sessionKey(id string) string   { return sessionPrefix + id }
func recordingKey(id string) string { return recordingPrefix + id }

// Store is the persistence interface for the protocol, sessions and recordings.
type Store interface {
	// Protocol
	GetProtocolTasks(ctx context.Context) ([]models.TaskDefinition, error)
	SetProtocolTasks(ctx context.Context, tasks []models.TaskDefinition) error
	GetProtocolTimestamp(ctx context.Context) (time.Time, error)
	SetProtocolTimestamp(ctx context.Context, ts time.Time) error
	GetProtocolSections(ctx context.Context) ([]models.ProtocolSection, error)
	SetProtocolSections(ctx context.Context, sections []models.ProtocolSection) error

	// Sessions
	ListSessions(ctx context.Context) ([]models.TestSession, error)
	GetSession(ctx context.Context, id string) (models.TestSession, error)
	SaveSession(ctx context.Context, session models.TestSession) error
	UpdateSession(ctx context.Context, session models.TestSession) error
	DeleteSession(ctx context.Context, id string) error

	// Recordings
	GetRecording(ctx context.Context, sessionID string) (models.RecordingRef, error)
	UploadRecording(ctx context.Context, ref models.RecordingRef) error
	DeleteRecording(ctx context.Context, sessionID string) error
}

// Entry is one raw key/value pair returned by a prefix listing.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// KV is the raw document backend. Values are JSON documents.
// Get and Delete return ErrNotFound for a missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Entry, error)
}

// DocumentStore implements Store on top of any KV backend.
type DocumentStore struct {
	kv     KV
	now    func() time.Time
	onSkip func(key string, err error)
}

// NewDocumentStore wraps kv.
func NewDocumentStore(kv KV) *DocumentStore {
	return &DocumentStore{kv: kv, now: time.Now, onSkip: func(string, error) {}}
}

// OnSkip registers fn to be told about each session document that ListSessions
// leaves out because it cannot be decoded.
func (s *DocumentStore) OnSkip(fn func(key string, err error)) *DocumentStore {
	if fn != nil {
		s.onSkip = fn
	}
	return s
}

func (s *DocumentStore) getJSON(ctx context.Context, key string, dst any) error {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *DocumentStore) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *DocumentStore) GetProtocolTasks(ctx context.Context) ([]models.TaskDefinition, error) {
	var tasks []models.TaskDefinition
	if err := s.getJSON(ctx, keyProtocolTasks, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SetProtocolTasks replaces the task list and bumps the protocol timestamp.
func (s *DocumentStore) SetProtocolTasks(ctx context.Context, tasks []models.TaskDefinition) error {
	if tasks == nil {
		tasks = []models.TaskDefinition{}
	}
	if err := s.putJSON(ctx, keyProtocolTasks, tasks); err != nil {
		return err
	}
	return s.SetProtocolTimestamp(ctx, s.now())
}

func (s *DocumentStore) GetProtocolTimestamp(ctx context.Context) (time.Time, error) {
	var ts time.Time
	if err := s.getJSON(ctx, keyProtocolTimestamp, &ts); err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

func (s *DocumentStore) SetProtocolTimestamp(ctx context.Context, ts time.Time) error {
	return s.putJSON(ctx, keyProtocolTimestamp, ts.UTC())
}

func (s *DocumentStore) GetProtocolSections(ctx context.Context) ([]models.ProtocolSection, error) {
	var sections []models.ProtocolSection
	if err := s.getJSON(ctx, keyProtocolSections, &sections); err != nil {
		return nil, err
	}
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Order < sections[j].Order })
	return sections, nil
}

func (s *DocumentStore) SetProtocolSections(ctx context.Context, sections []models.ProtocolSection) error {
	if sections == nil {
		sections = []models.ProtocolSection{}
	}
	return s.putJSON(ctx, keyProtocolSections, sections)
}

// ListSessions returns every readable session, oldest first. Documents that do
// not decode are skipped and reported through OnSkip.
func (s *DocumentStore) ListSessions(ctx context.Context) ([]models.TestSession, error) {
	entries, err := s.kv.List(ctx, sessionPrefix)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]models.TestSession, 0, len(entries))
	for _, e := range entries {
		var session models.TestSession
		if err := json.Unmarshal(e.Value, &session); err != nil {
			s.onSkip(e.Key, err)
			continue
		}
		if session.ID == "" {
			session.ID = strings.TrimPrefix(e.Key, sessionPrefix)
		}
		sessions = append(sessions, session)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].Date.Equal(sessions[j].Date) {
			return sessions[i].Date.Before(sessions[j].Date)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

func (s *DocumentStore) GetSession(ctx context.Context, id string) (models.TestSession, error) {
	var session models.TestSession
	if err := s.getJSON(ctx, sessionKey(id), &session); err != nil {
		return models.TestSession{}, err
	}
	if session.ID == "" {
		session.ID = id
	}
	return session, nil
}

// SaveSession creates or replaces a session.
func (s *DocumentStore) SaveSession(ctx context.Context, session models.TestSession) error {
	if session.ID == "" {
		return errors.New("session id is required")
	}
	return s.putJSON(ctx, sessionKey(session.ID), session)
}

// UpdateSession replaces an existing session and fails with ErrNotFound otherwise.
func (s *DocumentStore) UpdateSession(ctx context.Context, session models.TestSession) error {
	if _, err := s.kv.Get(ctx, sessionKey(session.ID)); err != nil {
		return err
	}
	return s.SaveSession(ctx, session)
}

// DeleteSession removes the session and any recording attached to it.
func (s *DocumentStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.kv.Delete(ctx, sessionKey(id)); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, recordingKey(id)); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete recording for %s: %w", id, err)
	}
	return nil
}

func (s *DocumentStore) GetRecording(ctx context.Context, sessionID string) (models.RecordingRef, error) {
	var ref models.RecordingRef
	if err := s.getJSON(ctx, recordingKey(sessionID), &ref); err != nil {
		return models.RecordingRef{}, err
	}
	return ref, nil
}

// UploadRecording stores the reference and points the session at it.
func (s *DocumentStore) UploadRecording(ctx context.Context, ref models.RecordingRef) error {
	session, err := s.GetSession(ctx, ref.SessionID)
	if err != nil {
		return err
	}
	if ref.UploadedAt.IsZero() {
		ref.UploadedAt = s.now().UTC()
	}
	if err := s.putJSON(ctx, recordingKey(ref.SessionID), ref); err != nil {
		return err
	}
	session.RecordingURL = ref.URL
	return s.SaveSession(ctx, session)
}

// DeleteRecording removes the reference and clears the session's link.
func (s *DocumentStore) DeleteRecording(ctx context.Context, sessionID string) error {
	if err := s.kv.Delete(ctx, recordingKey(sessionID)); err != nil {
		return err
	}
	session, err := s.GetSession(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	session.RecordingURL = ""
	return s.SaveSession(ctx, session)
}
