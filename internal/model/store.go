package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoActiveArtifact reports an empty store; the classifier falls back to
// the deterministic rule when it sees this.
var ErrNoActiveArtifact = errors.New("model: no active artifact")

type manifest struct {
	Active   string `json:"active"`
	Previous string `json:"previous"`
}

// Store persists artifacts as JSON files in a directory and tracks which
// version is active. Every write goes through a temp file plus rename, so a
// reader never observes a partially written artifact or manifest.
type Store struct {
	dir string
}

// NewStore creates the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the artifact under its version id without touching the active
// pointer.
func (s *Store) Save(a *Artifact) error {
	if a == nil || a.VersionID == "" {
		return fmt.Errorf("artifact must carry a version id")
	}
	return s.writeJSON(s.artifactPath(a.VersionID), a)
}

// Activate promotes the version to active and demotes the prior active
// version to previous. The previous artifact is retained as the rollback
// target, never deleted.
func (s *Store) Activate(versionID string) error {
	if _, err := os.Stat(s.artifactPath(versionID)); err != nil {
		return fmt.Errorf("activate %s: %w", versionID, err)
	}
	m, err := s.readManifest()
	if err != nil {
		return err
	}
	if m.Active == versionID {
		return nil
	}
	m.Previous = m.Active
	m.Active = versionID
	return s.writeJSON(s.manifestPath(), m)
}

// LoadActive returns the currently active artifact.
func (s *Store) LoadActive() (*Artifact, error) {
	m, err := s.readManifest()
	if err != nil {
		return nil, err
	}
	if m.Active == "" {
		return nil, ErrNoActiveArtifact
	}
	return s.load(m.Active)
}

// LoadPrevious returns the demoted artifact kept for rollback, or
// ErrNoActiveArtifact when none exists.
func (s *Store) LoadPrevious() (*Artifact, error) {
	m, err := s.readManifest()
	if err != nil {
		return nil, err
	}
	if m.Previous == "" {
		return nil, ErrNoActiveArtifact
	}
	return s.load(m.Previous)
}

func (s *Store) load(versionID string) (*Artifact, error) {
	data, err := os.ReadFile(s.artifactPath(versionID))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", versionID, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", versionID, err)
	}
	return &a, nil
}

func (s *Store) readManifest() (manifest, error) {
	data, err := os.ReadFile(s.manifestPath())
	if errors.Is(err, os.ErrNotExist) {
		return manifest{}, nil
	}
	if err != nil {
		return manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

func (s *Store) writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func (s *Store) artifactPath(versionID string) string {
	return filepath.Join(s.dir, versionID+".json")
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.dir, "manifest.json")
}
