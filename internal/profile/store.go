package profile

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

// Store persists the user's last known location to a small JSON file so a
// follow-up question like "will it rain today" can reuse it across restarts.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

type profileFile struct {
	Village   string    `json:"village"`
	State     string    `json:"state"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

// LastLocation returns the saved location, or ok=false when none was saved or
// the profile file is unreadable.
func (s *Store) LastLocation() (domain.Location, bool) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Location{}, false
	}

	var p profileFile
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Location{}, false
	}
	if p.Village == "" || p.State == "" {
		return domain.Location{}, false
	}

	return domain.Location{
		Village:     p.Village,
		State:       p.State,
		Lat:         p.Lat,
		Lon:         p.Lon,
		DisplayName: p.Village + ", " + p.State,
		Timestamp:   p.Timestamp,
	}, true
}

// SetLastLocation saves a location atomically via a temp file and rename.
func (s *Store) SetLastLocation(loc domain.Location) error {
	p := profileFile{
		Village:   loc.Village,
		State:     loc.State,
		Lat:       loc.Lat,
		Lon:       loc.Lon,
		Timestamp: loc.Timestamp,
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}

	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Clear removes the saved profile. A missing file is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
