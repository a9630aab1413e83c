package kv

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// File is a Store backed by a single JSON object on disk. Several File
// handles (in one or many processes) may share a path: every Set re-reads
// the file, applies the one key and writes the result back atomically, so
// concurrent writers only race on the same key.
//
// Values written by other handles become visible through Refresh, which also
// reports which keys changed.
type File struct {
	path string

	mu      sync.Mutex
	data    map[string]string
	pending map[string]struct{} // keys changed by other writers, not yet reported
}

// OpenFile returns a File for path. A missing or malformed file reads as an
// empty store; the file and its directory are created on the first Set.
func OpenFile(path string) *File {
	return &File{
		path:    path,
		data:    readDisk(path),
		pending: make(map[string]struct{}),
	}
}

// Path returns the location of the backing file.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *File) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set merges key into the latest on-disk contents and writes the file using
// a temp-file-then-rename so readers never observe a partial write.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	disk := readDisk(f.path)
	f.noteChanges(disk)
	disk[key] = value
	delete(f.pending, key)
	f.data = disk

	return writeDisk(f.path, disk)
}

// Refresh re-reads the file and returns the sorted keys whose values were
// changed by other writers since the previous Refresh.
func (f *File) Refresh() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	disk := readDisk(f.path)
	f.noteChanges(disk)
	f.data = disk

	if len(f.pending) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f.pending))
	for k := range f.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	f.pending = make(map[string]struct{})
	return keys
}

// noteChanges records every key whose value differs between the cached
// view and disk. Callers must hold f.mu.
func (f *File) noteChanges(disk map[string]string) {
	for k, v := range disk {
		if old, ok := f.data[k]; !ok || old != v {
			f.pending[k] = struct{}{}
		}
	}
	for k := range f.data {
		if _, ok := disk[k]; !ok {
			f.pending[k] = struct{}{}
		}
	}
}

func readDisk(path string) map[string]string {
	out := make(map[string]string)

	fh, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[kv] reading %s: %v", path, err)
		}
		return out
	}
	defer fh.Close()

	data, err := io.ReadAll(fh)
	if err != nil {
		log.Printf("[kv] reading %s: %v", path, err)
		return out
	}
	if len(data) == 0 {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		log.Printf("[kv] ignoring malformed store %s: %v", path, err)
		return make(map[string]string)
	}
	if out == nil {
		out = make(map[string]string)
	}
	return out
}

func writeDisk(path string, data map[string]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	buf, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling store: %w", err)
	}
	buf = append(buf, '\n')

	tmp, err := os.CreateTemp(dir, ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming store file: %w", err)
	}
	committed = true

	return nil
}
