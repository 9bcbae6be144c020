package ingest

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

// ManifestEntry records one previously-ingested document so unchanged content
// can be skipped with a single hash comparison.
type ManifestEntry struct {
	SHA256 string `json:"sha256"`
	Chunks int    `json:"chunks"`
	Origin string `json:"origin"`
}

// Manifest maps document names to their ingest records. It is persisted as a
// JSON file and survives process restarts.
type Manifest struct {
	path    string
	entries map[string]ManifestEntry
}

// LoadManifest reads the manifest file at path. A missing file yields an empty
// manifest; a file that exists but cannot be parsed is a hard error, since
// silently re-ingesting everything would hide the corruption.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{path: path, entries: make(map[string]ManifestEntry)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to read ingest manifest", err)
	}

	if err := json.Unmarshal(raw, &m.entries); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "ingest manifest is corrupted", err)
	}
	return m, nil
}

// Get returns the entry for a document name.
func (m *Manifest) Get(name string) (ManifestEntry, bool) {
	e, ok := m.entries[name]
	return e, ok
}

// Set records an entry for a document name. Call Save to persist.
func (m *Manifest) Set(name string, entry ManifestEntry) {
	m.entries[name] = entry
}

// Len returns the number of recorded documents.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Entries returns a copy of all recorded documents keyed by name.
func (m *Manifest) Entries() map[string]ManifestEntry {
	out := make(map[string]ManifestEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

// Save writes the manifest atomically via a temp file and rename.
func (m *Manifest) Save() error {
	raw, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}
