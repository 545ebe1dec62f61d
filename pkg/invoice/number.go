package invoice

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// CounterState is the sole durable state in the system: the last period
// an invoice number was issued in, and the counter within that period.
type CounterState struct {
	Period  string // calendar year-month, "YYYYMM"
	Counter int
}

// CounterStore persists CounterState between allocations. Implementations
// do not need to be safe for concurrent use; the Allocator serializes
// every Load/Save pair under its own lock.
type CounterStore interface {
	// Load returns the stored state, or ok=false when nothing usable
	// has been stored yet.
	Load() (state CounterState, ok bool, err error)
	Save(state CounterState) error
}

// FileCounterStore keeps the counter in a plain text file containing
// "{period}-{counter}". The file is overwritten in place; a crash between
// read and write can lose an increment, which is an accepted risk.
type FileCounterStore struct {
	path string
}

// NewFileCounterStore returns a store backed by the file at path. The
// file is created on first save.
func NewFileCounterStore(path string) *FileCounterStore {
	return &FileCounterStore{path: path}
}

// Load parses the counter file. A missing, empty or malformed file is
// reported as absent so allocation restarts at 1.
func (s *FileCounterStore) Load() (CounterState, bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CounterState{}, false, nil
		}
		return CounterState{}, false, errors.Wrap(err, "read counter file")
	}

	parts := strings.Split(strings.TrimSpace(string(raw)), "-")
	if len(parts) != 2 {
		return CounterState{}, false, nil
	}
	counter, err := strconv.Atoi(parts[1])
	if err != nil || counter < 1 {
		return CounterState{}, false, nil
	}
	return CounterState{Period: parts[0], Counter: counter}, true, nil
}

// Save overwrites the counter file.
func (s *FileCounterStore) Save(state CounterState) error {
	content := fmt.Sprintf("%s-%d", state.Period, state.Counter)
	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		return errors.Wrap(err, "write counter file")
	}
	return nil
}

// MemCounterStore is an in-memory CounterStore for tests and ephemeral
// deployments.
type MemCounterStore struct {
	mu    sync.Mutex
	state CounterState
	ok    bool
}

// NewMemCounterStore returns an empty in-memory store.
func NewMemCounterStore() *MemCounterStore {
	return &MemCounterStore{}
}

func (s *MemCounterStore) Load() (CounterState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.ok, nil
}

func (s *MemCounterStore) Save(state CounterState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.ok = true
	return nil
}

// Allocator issues sequential invoice numbers scoped to the current
// calendar month, formatted "{prefix}-{YYYYMM}-{counter}" with the
// counter zero-padded to at least four digits. The counter resets to 1
// whenever the stored period differs from the current one.
//
// The whole read-modify-write is a single critical section, so numbers
// are unique within one process. Multiple processes sharing one counter
// file would additionally need file locking.
type Allocator struct {
	mu     sync.Mutex
	store  CounterStore
	prefix string
	now    func() time.Time
}

// NewAllocator returns an allocator issuing numbers with the given
// prefix from the given store.
func NewAllocator(store CounterStore, prefix string) *Allocator {
	return &Allocator{store: store, prefix: prefix, now: time.Now}
}

// Next allocates and persists the next invoice number.
func (a *Allocator) Next() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	period := a.now().Format("200601")

	state, ok, err := a.store.Load()
	if err != nil {
		return "", err
	}

	counter := 1
	if ok && state.Period == period {
		counter = state.Counter + 1
	}

	if err := a.store.Save(CounterState{Period: period, Counter: counter}); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%04d", a.prefix, period, counter), nil
}
