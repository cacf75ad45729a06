// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

// Package snapshot provides versioned persistence for engine state.
//
// Each engine sub-structure (features, profiles, model, cache, stats) is
// stored as its own section file, allowing partial loads and independent
// format evolution. Sections are gob-encoded, gzip-compressed and carry
// version, timestamp and SHA-256 checksum metadata.
//
// # Storage Format
//
// Files are named {section}_v{version}.gob.gz and contain a single
// gob-encoded storedFile struct: metadata followed by the compressed
// payload. Checksums cover the uncompressed payload bytes.
//
// # Thread Safety
//
// All store operations are safe for concurrent use.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const fileSuffix = ".gob.gz"

// SectionMetadata describes one stored section.
type SectionMetadata struct {
	// Section is the section name (e.g. "model", "profiles").
	Section string `json:"section"`

	// Version is the snapshot version (monotonically increasing).
	Version int `json:"version"`

	// SavedAt is when the section was written.
	SavedAt time.Time `json:"saved_at"`

	// Checksum is the SHA-256 checksum of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the on-disk format for section files.
type storedFile struct {
	Metadata       SectionMetadata
	CompressedData []byte
}

// Store manages versioned snapshot sections in one directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// latest version per section name
	versions map[string]int
}

// NewStore creates a snapshot store at the given directory, creating it
// if needed and scanning for existing sections.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for snapshot storage
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan existing snapshots: %w", err)
	}
	return s, nil
}

func (s *Store) scan() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) <= len(fileSuffix) || name[len(name)-len(fileSuffix):] != fileSuffix {
			continue
		}
		section, version := parseFilename(name[:len(name)-len(fileSuffix)])
		if section == "" {
			continue
		}
		if current, ok := s.versions[section]; !ok || version > current {
			s.versions[section] = version
		}
	}
	return nil
}

// parseFilename extracts section name and version from "model_v3".
func parseFilename(name string) (section string, version int) {
	lastVIdx := -1
	for i := len(name) - 1; i >= 1; i-- {
		if name[i] == 'v' && name[i-1] == '_' {
			lastVIdx = i - 1
			break
		}
	}
	if lastVIdx < 0 {
		return "", 0
	}
	if _, err := fmt.Sscanf(name[lastVIdx+2:], "%d", &version); err != nil {
		return "", 0
	}
	return name[:lastVIdx], version
}

func (s *Store) sectionPath(section string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", section, version, fileSuffix))
}

// Save writes one section at the given version.
func (s *Store) Save(section string, version int, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("encode section %s: %w", section, err)
	}
	raw := buf.Bytes()

	hash := sha256.Sum256(raw)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return fmt.Errorf("compress section %s: %w", section, err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression for %s: %w", section, err)
	}

	sf := storedFile{
		Metadata: SectionMetadata{
			Section:   section,
			Version:   version,
			SavedAt:   time.Now().UTC(),
			Checksum:  hex.EncodeToString(hash[:]),
			SizeBytes: int64(compressed.Len()),
		},
		CompressedData: compressed.Bytes(),
	}

	filename := s.sectionPath(section, version)
	f, err := os.Create(filename) //nolint:gosec // path is constructed from trusted section name
	if err != nil {
		return fmt.Errorf("create section file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close error after successful write is not actionable

	if err := gob.NewEncoder(f).Encode(sf); err != nil {
		return fmt.Errorf("write section file: %w", err)
	}

	if current, ok := s.versions[section]; !ok || version > current {
		s.versions[section] = version
	}
	return nil
}

// Load reads one section into target. Version 0 loads the latest.
// A checksum mismatch is a load failure.
func (s *Store) Load(section string, version int, target any) (*SectionMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool
		version, ok = s.versions[section]
		if !ok {
			return nil, fmt.Errorf("no snapshot found for section %s", section)
		}
	}

	f, err := os.Open(s.sectionPath(section, version)) //nolint:gosec // path is constructed from trusted section name
	if err != nil {
		return nil, fmt.Errorf("open section file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close error after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read section file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress section %s: %w", section, err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // close error after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch for section %s v%d: expected %s, got %s",
			section, version, sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode section %s: %w", section, err)
	}
	return &sf.Metadata, nil
}

// LatestVersion returns the newest stored version for a section.
func (s *Store) LatestVersion(section string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	version, ok := s.versions[section]
	return version, ok
}

// List returns metadata for the latest version of every stored section.
func (s *Store) List() ([]SectionMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sections []SectionMetadata
	for section, version := range s.versions {
		f, err := os.Open(s.sectionPath(section, version)) //nolint:gosec // path is constructed from trusted section name
		if err != nil {
			continue
		}
		var sf storedFile
		err = gob.NewDecoder(f).Decode(&sf)
		_ = f.Close() //nolint:errcheck // close error after read is not actionable
		if err != nil {
			continue
		}
		sections = append(sections, sf.Metadata)
	}
	return sections, nil
}

// Prune removes section versions older than the latest keepVersions.
func (s *Store) Prune(section string, keepVersions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keepVersions < 1 {
		keepVersions = 1
	}
	latest, ok := s.versions[section]
	if !ok {
		return nil
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read snapshot directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) <= len(fileSuffix) || name[len(name)-len(fileSuffix):] != fileSuffix {
			continue
		}
		sec, version := parseFilename(name[:len(name)-len(fileSuffix)])
		if sec != section || version > latest-keepVersions {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil {
			return fmt.Errorf("remove old snapshot %s: %w", name, err)
		}
	}
	return nil
}
