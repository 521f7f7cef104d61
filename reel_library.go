// reel_library.go - Source handle resolution and catalog

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const REEL_EXTENSION = ".reel"

// SourceResolver maps the host's source handle to a container.
type SourceResolver interface {
	Resolve(handle string) (ReelSource, error)
}

// ReelLibrary resolves handles against containers registered in memory
// (ROM-embedded videos) and then against .reel files under a base directory.
type ReelLibrary struct {
	mu      sync.Mutex
	baseDir string
	embeds  map[string][]byte
}

func NewReelLibrary(baseDir string) *ReelLibrary {
	return &ReelLibrary{baseDir: baseDir, embeds: make(map[string][]byte)}
}

// Add registers an in-memory container under name.
func (l *ReelLibrary) Add(name string, data []byte) {
	l.mu.Lock()
	l.embeds[name] = data
	l.mu.Unlock()
}

func (l *ReelLibrary) Resolve(handle string) (ReelSource, error) {
	l.mu.Lock()
	data, ok := l.embeds[handle]
	baseDir := l.baseDir
	l.mu.Unlock()
	if ok {
		return NewMemorySource(data), nil
	}
	if baseDir == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchSource, handle)
	}

	fullPath, ok := sanitizeLibraryPath(baseDir, handle)
	if !ok {
		return nil, fmt.Errorf("%w: invalid path %q", ErrNoSuchSource, handle)
	}
	if filepath.Ext(fullPath) == "" {
		fullPath += REEL_EXTENSION
	}
	src, err := OpenFileSource(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNoSuchSource, handle)
		}
		return nil, fmt.Errorf("%w: %v", ErrNoSuchSource, err)
	}
	return src, nil
}

func sanitizeLibraryPath(baseDir, path string) (string, bool) {
	if path == "" || filepath.IsAbs(path) || strings.Contains(path, "..") {
		return "", false
	}
	fullPath := filepath.Join(baseDir, path)
	rel, err := filepath.Rel(baseDir, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return fullPath, true
}

// CatalogEntry describes one playable container.
type CatalogEntry struct {
	Handle   string
	Title    string
	Frames   int
	Duration string
	Audio    bool
	Err      error

	// Thumbnail is nil when the container has none or its CRC fails; the
	// reel stays playable either way.
	Thumbnail *ReelThumbnail
}

// Label is the text the menu shows for the entry.
func (e CatalogEntry) Label() string {
	label := e.Title
	if label == "" {
		label = strings.TrimSuffix(e.Handle, REEL_EXTENSION)
	}
	if e.Err != nil {
		label += " (unreadable)"
	}
	return label
}

// Catalog lists every registered and on-disk container, sorted by handle.
// Containers that fail to open are listed with Err set.
func (l *ReelLibrary) Catalog() ([]CatalogEntry, error) {
	l.mu.Lock()
	handles := make([]string, 0, len(l.embeds))
	for name := range l.embeds {
		handles = append(handles, name)
	}
	baseDir := l.baseDir
	l.mu.Unlock()

	if baseDir != "" {
		dirEntries, err := os.ReadDir(baseDir)
		if err != nil {
			return nil, err
		}
		for _, de := range dirEntries {
			if de.IsDir() || !strings.EqualFold(filepath.Ext(de.Name()), REEL_EXTENSION) {
				continue
			}
			handles = append(handles, de.Name())
		}
	}
	sort.Strings(handles)

	entries := make([]CatalogEntry, 0, len(handles))
	for _, handle := range handles {
		entries = append(entries, l.describe(handle))
	}
	return entries, nil
}

func (l *ReelLibrary) describe(handle string) CatalogEntry {
	entry := CatalogEntry{Handle: handle}
	src, err := l.Resolve(handle)
	if err != nil {
		entry.Err = err
		return entry
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}
	idx, err := OpenReelIndex(src)
	if err != nil {
		entry.Err = err
		return entry
	}
	h := idx.Header()
	entry.Title = h.Title
	entry.Frames = idx.FrameCount()
	entry.Duration = h.DurationText()
	entry.Audio = h.HasAudio()
	entry.Thumbnail, _ = idx.ReadThumbnail(src)
	return entry
}
