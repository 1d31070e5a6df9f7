package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Role is who the stored credentials say we are. Exactly one value is
// reported at a time even when both credential slots are populated.
type Role string

const (
	RoleNone    Role = ""
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Credentials is one stored login
type Credentials struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	StudentID uint      `json:"student_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at the given time
func (c *Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

type storeState struct {
	Student *Credentials `json:"student,omitempty"`
	Teacher *Credentials `json:"teacher,omitempty"`
}

// SessionStore persists login state as a JSON file so sessions survive
// process restarts. Teacher credentials take precedence when both are
// present; expired entries are ignored and swept on the next save.
type SessionStore struct {
	mu    sync.Mutex
	path  string
	state storeState
	now   func() time.Time
}

// NewSessionStore opens the store at path, loading existing state. A
// missing or unreadable file starts empty; a corrupt file is treated
// as empty rather than an error so a bad write never locks users out.
func NewSessionStore(path string) (*SessionStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("session store: no config dir: %w", err)
		}
		path = filepath.Join(dir, "casesim", "session.json")
	}

	s := &SessionStore{path: path, now: time.Now}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("session store: read failed: %w", err)
	}
	if jsonErr := json.Unmarshal(data, &s.state); jsonErr != nil {
		s.state = storeState{}
	}
	return s, nil
}

// SetStudent stores a student login
func (s *SessionStore) SetStudent(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Student = &creds
	return s.persist()
}

// SetTeacher stores a teacher login
func (s *SessionStore) SetTeacher(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Teacher = &creds
	return s.persist()
}

// ClearStudent drops the student credentials, leaving any teacher
// session intact
func (s *SessionStore) ClearStudent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Student = nil
	return s.persist()
}

// ClearTeacher drops the teacher credentials
func (s *SessionStore) ClearTeacher() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Teacher = nil
	return s.persist()
}

// ActiveRole reports the effective role right now. Teacher wins over
// student; expired credentials count as absent.
func (s *SessionStore) ActiveRole() Role {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.state.Teacher != nil && !s.state.Teacher.Expired(now) {
		return RoleTeacher
	}
	if s.state.Student != nil && !s.state.Student.Expired(now) {
		return RoleStudent
	}
	return RoleNone
}

// ActiveCredentials returns the credentials backing ActiveRole, or nil
// when there is no live session
func (s *SessionStore) ActiveCredentials() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.state.Teacher != nil && !s.state.Teacher.Expired(now) {
		creds := *s.state.Teacher
		return &creds
	}
	if s.state.Student != nil && !s.state.Student.Expired(now) {
		creds := *s.state.Student
		return &creds
	}
	return nil
}

// StudentCredentials returns the live student credentials even when a
// teacher session is also active, or nil
func (s *SessionStore) StudentCredentials() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Student != nil && !s.state.Student.Expired(s.now()) {
		creds := *s.state.Student
		return &creds
	}
	return nil
}

// persist writes the state; callers hold the lock. Expired entries are
// swept so the file never accumulates dead tokens.
func (s *SessionStore) persist() error {
	now := s.now()
	if s.state.Student != nil && s.state.Student.Expired(now) {
		s.state.Student = nil
	}
	if s.state.Teacher != nil && s.state.Teacher.Expired(now) {
		s.state.Teacher = nil
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("session store: encode failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session store: mkdir failed: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("session store: write failed: %w", err)
	}
	return nil
}
