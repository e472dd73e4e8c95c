package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ppiankov/estatuto/internal/model"
)

const recordsFile = "records.json"

// FileStore writes one JSON document per act under dir/<type>/ and keeps
// listing records in dir/records.json
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates the output directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file an act is stored in
func (s *FileStore) Path(key model.ActKey) string {
	name := strings.ReplaceAll(key.Number, ".", "")
	if key.Year > 0 {
		name += "-" + strconv.Itoa(key.Year)
	}
	return filepath.Join(s.dir, string(key.Type), name+".json")
}

func (s *FileStore) FetchAct(_ context.Context, key model.ActKey) (*model.StructuredAct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(key)
}

func (s *FileStore) read(key model.ActKey) (*model.StructuredAct, error) {
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read act: %w", err)
	}
	var act model.StructuredAct
	if err := json.Unmarshal(data, &act); err != nil {
		return nil, fmt.Errorf("decode act %s: %w", key, err)
	}
	return &act, nil
}

func (s *FileStore) SaveAct(_ context.Context, act *model.StructuredAct) error {
	if err := validKey(act.Key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clone(act)
	if existing, err := s.read(act.Key); err == nil {
		keepEmenta(stored, existing)
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode act: %w", err)
	}
	return writeAtomic(s.Path(act.Key), data)
}

func (s *FileStore) SaveRecords(_ context.Context, records []model.ActRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, recordsFile)
	existing := make(map[string]model.ActRecord)
	if data, err := os.ReadFile(path); err == nil {
		var list []model.ActRecord
		if err := json.Unmarshal(data, &list); err != nil {
			return 0, fmt.Errorf("decode records: %w", err)
		}
		for _, r := range list {
			existing[r.Key().String()] = r
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("read records: %w", err)
	}

	n := 0
	for _, r := range records {
		if validKey(r.Key()) != nil {
			continue
		}
		existing[r.Key().String()] = r
		n++
	}

	keys := make([]string, 0, len(existing))
	for k := range existing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]model.ActRecord, 0, len(keys))
	for _, k := range keys {
		list = append(list, existing[k])
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode records: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *FileStore) Close() error { return nil }

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
