package history

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"aqwidget/pkg/logx"
)

// fileStore keeps the whole history in one JSON file keyed by location,
// matching the aqi_history.json layout the skin already knows. The file is
// rewritten atomically (tmp + rename) on every append; with one observation
// per location per cycle this stays tiny.
type fileStore struct {
	log    logx.Logger
	path   string
	maxAge time.Duration

	mu sync.Mutex
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("history.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path, maxAge: cfg.MaxAge}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) Append(ctx context.Context, location string, o Observation) error {
	_ = ctx
	location = strings.TrimSpace(location)
	if location == "" {
		return errors.New("location is required")
	}
	if o.At.IsZero() {
		o.At = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		return err
	}
	all[location] = compact(append(all[location], o), time.Now().Add(-s.maxAge))
	return s.writeLocked(all)
}

func (s *fileStore) Window(ctx context.Context, location string, since time.Time) ([]Observation, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	return compact(all[location], since), nil
}

func (s *fileStore) readLocked() (map[string][]Observation, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]Observation{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return map[string][]Observation{}, nil
	}
	var all map[string][]Observation
	if err := json.Unmarshal(data, &all); err != nil {
		// A corrupt history file should not wedge the updater forever.
		s.log.Warn("history file unreadable; starting fresh", logx.String("path", s.path), logx.Err(err))
		return map[string][]Observation{}, nil
	}
	if all == nil {
		all = map[string][]Observation{}
	}
	return all, nil
}

func (s *fileStore) writeLocked(all map[string][]Observation) error {
	data, err := json.Marshal(all)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// compact drops observations older than the cutoff and returns the rest in
// ascending time order.
func compact(obs []Observation, cutoff time.Time) []Observation {
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.At.IsZero() || o.At.Before(cutoff) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
