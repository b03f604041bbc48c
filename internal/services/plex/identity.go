package plex

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

// Version is reported in X-Plex-Version and User-Agent.
var Version = "dev"

// Identity is the client identification sent on every remote call.
type Identity struct {
	ClientIdentifier string
	Product          string
	DeviceName       string
}

func (id Identity) apply(req *http.Request) {
	product := id.Product
	if product == "" {
		product = "plexbridge"
	}
	device := id.DeviceName
	if device == "" {
		device = product
	}
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", product+"/"+Version)
	req.Header.Set("X-Plex-Client-Identifier", id.ClientIdentifier)
	req.Header.Set("X-Plex-Product", product)
	req.Header.Set("X-Plex-Version", Version)
	req.Header.Set("X-Plex-Device", product)
	req.Header.Set("X-Plex-Device-Name", device)
	req.Header.Set("X-Plex-Provides", "controller")
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
	req.Header.Set("X-Plex-Platform-Version", runtime.Version())
}

type clientState struct {
	ClientIdentifier string `json:"client_identifier"`
}

// IdentityStore persists the generated client identifier as JSON.
type IdentityStore struct {
	path string
}

// NewIdentityStore builds a store rooted at path.
func NewIdentityStore(path string) *IdentityStore {
	return &IdentityStore{path: path}
}

// LoadOrCreate returns the persisted client identifier, generating and
// saving a new one on first use.
func (s *IdentityStore) LoadOrCreate() (string, error) {
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		var state clientState
		if err := json.Unmarshal(data, &state); err != nil {
			return "", fmt.Errorf("decode client state: %w", err)
		}
		if id := strings.TrimSpace(state.ClientIdentifier); id != "" {
			return id, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read client state: %w", err)
	}

	id := uuid.NewString()
	if err := s.save(clientState{ClientIdentifier: id}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *IdentityStore) save(state clientState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure client state directory: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode client state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write client state: %w", err)
	}
	return nil
}
