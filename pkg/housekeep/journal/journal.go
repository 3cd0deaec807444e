package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
)

// Lookup errors returned by Get.
var (
	ErrNotFound  = errors.New("journal entry not found")
	ErrAmbiguous = errors.New("journal entry ID is ambiguous")
)

var logger = logging.Get("journal")

// Journal reads and writes entries in a single directory.
type Journal struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// New returns a Journal rooted at dir. The directory is created on the
// first write.
func New(dir string) (*Journal, error) {
	if dir == "" {
		return nil, errors.New("journal directory cannot be empty")
	}
	return &Journal{dir: dir, now: time.Now}, nil
}

// Dir returns the journal directory.
func (j *Journal) Dir() string {
	return j.dir
}

// Record writes a new entry for op under root and returns it. Records
// with ActionFailed count as failures; all others as successes.
func (j *Journal) Record(op Operation, root string, records []Record) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := &Entry{
		ID:        uuid.NewString(),
		Timestamp: j.now().UTC(),
		Operation: op,
		Root:      root,
		Records:   records,
	}
	if entry.Records == nil {
		entry.Records = []Record{}
	}
	for _, r := range records {
		if r.Action == ActionFailed {
			entry.Summary.Failed++
			continue
		}
		entry.Summary.Succeeded++
		entry.Summary.TotalBytes += r.Size
	}

	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	if err := j.write(entry); err != nil {
		return nil, fmt.Errorf("writing journal entry: %w", err)
	}

	logger.Debug("journal entry written", "id", entry.ID, "operation", op, "records", len(records))
	return entry, nil
}

// write stores the entry through a temp file and rename so readers never
// see a partial file.
func (j *Journal) write(entry *Entry) error {
	path := filepath.Join(j.dir, filename(entry))

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling entry: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func filename(e *Entry) string {
	return fmt.Sprintf("%s_%s_%s.json", e.Timestamp.Format("20060102-150405"), e.Operation, e.ID)
}

// List returns entries newest first, at most limit of them when limit is
// positive. A journal that was never written is empty, not an error.
// Unparseable files are skipped with a warning.
func (j *Journal) List(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Timestamp.After(entries[b].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry whose ID equals or starts with id.
func (j *Journal) Get(id string) (*Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}

	var match *Entry
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
		if strings.HasPrefix(entries[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
			}
			match = &entries[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Cleanup removes entries older than retentionDays and returns how many
// were removed. A non-positive retention keeps everything.
func (j *Journal) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := j.now().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(j.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading journal directory: %w", err)
	}

	removed := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		entry, err := j.readFile(f.Name())
		if err != nil {
			continue
		}
		if !entry.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, f.Name())); err != nil {
			logger.Warn("failed to remove journal entry", "file", f.Name(), "err", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (j *Journal) readAll() ([]Entry, error) {
	files, err := os.ReadDir(j.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("reading journal directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		entry, err := j.readFile(f.Name())
		if err != nil {
			logger.Warn("skipping unreadable journal entry", "file", f.Name(), "err", err)
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (j *Journal) readFile(name string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(j.dir, name))
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
