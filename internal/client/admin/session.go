package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrNoSession is returned by SessionFile.Load when nobody has logged in yet.
var ErrNoSession = errors.New("not logged in, run the login command first")

// Session is the locally remembered admin session.
type Session struct {
	Server  string    `json:"server"`
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// SessionFile persists the session between client invocations.
type SessionFile struct {
	Path string
}

// Load reads the saved session.
func (f SessionFile) Load() (Session, error) {
	var s Session
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, ErrNoSession
		}
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("read session file: %w", err)
	}
	if s.Token == "" {
		return s, ErrNoSession
	}
	return s, nil
}

// Save writes s readable by the owner only.
func (f SessionFile) Save(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

// Clear forgets the saved session.
func (f SessionFile) Clear() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
