// Package registry owns the ordered sequence of processed files and its
// durable representation: a single JSON file holding the full record array,
// most recent first.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/docshelf/backend/internal/models"
)

var (
	// ErrNotLoaded is returned by Insert when Load has not completed yet.
	// Persisting before the initial load would overwrite durable data
	// with an empty sequence.
	ErrNotLoaded = errors.New("registry: load has not completed")

	// ErrRecordNotFound signals a lookup miss. A normal outcome, not an
	// exception condition.
	ErrRecordNotFound = errors.New("registry: record not found")
)

// Event describes a registry mutation delivered to subscribers.
type Event struct {
	Record *models.ProcessedFile `json:"record"`
}

// Store defines the registry interface.
// This allows mocking in tests.
type Store interface {
	Load() error
	Loaded() bool
	All() []*models.ProcessedFile
	Get(id string) (*models.ProcessedFile, error)
	Insert(rec *models.ProcessedFile) error
	Subscribe() <-chan Event
	Unsubscribe(ch <-chan Event)
}

// FileStore implements Store backed by a single JSON file on local disk.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	log     *zap.Logger
	loaded  bool
	records []*models.ProcessedFile
	subs    map[<-chan Event]chan Event
}

// NewFileStore creates a FileStore persisting to the given file path.
// Load must be called before Insert is permitted.
func NewFileStore(path string, log *zap.Logger) *FileStore {
	return &FileStore{
		path: path,
		log:  log,
		subs: make(map[<-chan Event]chan Event),
	}
}

// Load reads the durable slot once, at startup. A missing, empty, or
// unparsable slot yields an empty registry; that recovery is silent
// beyond a warn log, never surfaced to the user.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("registry slot unreadable, starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		s.records = []*models.ProcessedFile{}
		s.loaded = true
		return nil
	}

	var records []*models.ProcessedFile
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			s.log.Warn("registry slot unparsable, starting empty",
				zap.String("path", s.path), zap.Error(err))
			records = nil
		}
	}
	if records == nil {
		records = []*models.ProcessedFile{}
	}

	s.records = records
	s.loaded = true
	s.log.Info("registry loaded",
		zap.String("path", s.path), zap.Int("records", len(records)))
	return nil
}

// Loaded reports whether Load has completed.
func (s *FileStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// All returns the current ordered sequence, most recent first.
func (s *FileStore) All() []*models.ProcessedFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ProcessedFile, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with the given id. Linear scan; registries stay
// small enough that an index is not worth carrying.
func (s *FileStore) Get(id string) (*models.ProcessedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
}

// Insert prepends rec and persists the full sequence to the slot file.
// Fails with ErrNotLoaded before Load has completed. The in-memory
// sequence is only updated once the persist succeeded.
func (s *FileStore) Insert(rec *models.ProcessedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}

	records := make([]*models.ProcessedFile, 0, len(s.records)+1)
	records = append(records, rec)
	records = append(records, s.records...)

	if err := s.persist(records); err != nil {
		return err
	}
	s.records = records

	s.notify(Event{Record: rec})
	return nil
}

// persist writes the full sequence to a temp file and renames it over the
// slot, so a crash mid-write cannot corrupt the previous state.
func (s *FileStore) persist(records []*models.ProcessedFile) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing registry slot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing registry slot: %w", err)
	}
	return nil
}

// Subscribe returns a channel receiving an Event per insert. Mounted views
// watch this instead of re-reading the registry on a timer.
func (s *FileStore) Subscribe() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, 8)
	s.subs[ch] = ch
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (s *FileStore) Unsubscribe(ch <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(sub)
	}
}

// notify fans an event out to subscribers. A subscriber that has fallen
// behind its buffer misses the event; the writer never blocks on it.
func (s *FileStore) notify(ev Event) {
	for _, sub := range s.subs {
		select {
		case sub <- ev:
		default:
			s.log.Warn("dropping registry event for slow subscriber")
		}
	}
}

// Ensure FileStore implements Store
var _ Store = (*FileStore)(nil)
