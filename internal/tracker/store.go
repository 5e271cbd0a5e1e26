package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"auto3d/internal/fileutil"
	"auto3d/internal/logging"
)

// Entry is the persisted state of one product.
type Entry struct {
	LastFingerprint string    `json:"last_fp"`
	Status          Status    `json:"status"`
	Error           string    `json:"error,omitempty"`
	MediaID         string    `json:"media_id,omitempty"`
	Title           string    `json:"title,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Record pairs an entry with its product identifier for listings.
type Record struct {
	ProductID string `json:"product_id"`
	Entry
}

// Outcome describes the result written by RecordOutcome.
type Outcome struct {
	Status  Status
	Error   string
	MediaID string
	Title   string
}

// Store provides thread-safe access to the state document.
type Store struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// Open reads the state document at path. A missing or empty file yields an
// empty store; a document that cannot be parsed is an error so that state is
// never silently discarded.
func Open(path string, logger *slog.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("tracker: state file path is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		path:    path,
		logger:  logging.NewComponentLogger(logger, "tracker"),
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the state document.
func (s *Store) Path() string {
	return s.path
}

// ShouldProcess reports whether the product needs evaluation: false only when
// an entry exists whose fingerprint equals fp.
func (s *Store) ShouldProcess(productID, fp string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[productID]
	return !ok || entry.LastFingerprint != fp
}

// ShouldRetry reports whether an unchanged product's last attempt failed.
func (s *Store) ShouldRetry(productID, fp string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[productID]
	return ok && entry.LastFingerprint == fp && entry.Status.IsFailure()
}

// RecordSkippedExisting records that the product already carries a model.
func (s *Store) RecordSkippedExisting(productID, fp string) error {
	return s.RecordOutcome(productID, fp, Outcome{Status: StatusSkippedModelExists})
}

// RecordOutcome overwrites the product's entry and persists the document. If
// the write fails the in-memory entry is rolled back so memory matches disk.
func (s *Store) RecordOutcome(productID, fp string, outcome Outcome) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return errors.New("tracker: product id cannot be empty")
	}
	if !outcome.Status.Valid() {
		return fmt.Errorf("tracker: unknown status %q", outcome.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.entries[productID]
	s.entries[productID] = Entry{
		LastFingerprint: fp,
		Status:          outcome.Status,
		Error:           outcome.Error,
		MediaID:         outcome.MediaID,
		Title:           outcome.Title,
		UpdatedAt:       s.now().UTC(),
	}

	if err := s.save(); err != nil {
		if existed {
			s.entries[productID] = previous
		} else {
			delete(s.entries, productID)
		}
		return fmt.Errorf("persist state: %w", err)
	}

	s.logger.Debug("state recorded",
		logging.String(logging.FieldProductID, productID),
		logging.String("fingerprint", fp),
		logging.String("status", string(outcome.Status)))
	return nil
}

// Get returns the entry for a product.
func (s *Store) Get(productID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[productID]
	return entry, ok
}

// List returns all entries sorted by UpdatedAt descending (newest first).
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.entries))
	for id, entry := range s.entries {
		records = append(records, Record{ProductID: id, Entry: entry})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].UpdatedAt.Equal(records[j].UpdatedAt) {
			return records[i].ProductID < records[j].ProductID
		}
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records
}

// Count returns the number of tracked products.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CountByStatus tallies tracked products per status.
func (s *Store) CountByStatus() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[Status]int, len(Statuses))
	for _, entry := range s.entries {
		counts[entry.Status]++
	}
	return counts
}

// Flush rewrites the document from memory.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	s.entries = entries

	s.logger.Debug("loaded state document",
		logging.Int("entry_count", len(entries)),
		logging.String("state_path", s.path))
	return nil
}

// save writes the document atomically. Callers hold the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return fileutil.WriteAtomic(s.path, data, 0o644)
}
