package catalog

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/MrWong99/enunciate/pkg/types"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// The zero value is ready to use.
type MemStore struct {
	mu    sync.RWMutex
	items map[int]types.PracticeItem
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{items: make(map[int]types.PracticeItem)}
}

// Add implements [Store.Add].
func (s *MemStore) Add(_ context.Context, item types.PracticeItem) error {
	if err := Validate(item); err != nil {
		return fmt.Errorf("catalog: item %d: %w", item.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items == nil {
		s.items = make(map[int]types.PracticeItem)
	}
	if _, exists := s.items[item.ID]; exists {
		return ErrDuplicateID
	}
	s.items[item.ID] = item
	return nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(_ context.Context, id int) (types.PracticeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return types.PracticeItem{}, ErrNotFound
	}
	return it, nil
}

// List implements [Store.List].
func (s *MemStore) List(_ context.Context, opts ListOptions) ([]types.PracticeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.matching(opts), nil
}

// Random implements [Store.Random].
func (s *MemStore) Random(_ context.Context, rng *rand.Rand, opts ListOptions) (types.PracticeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := s.matching(opts)
	if len(candidates) == 0 {
		return types.PracticeItem{}, ErrEmpty
	}
	return candidates[rng.IntN(len(candidates))], nil
}

// Categories implements [Store.Categories].
func (s *MemStore) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, it := range s.items {
		if it.Category != "" {
			seen[it.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	slices.Sort(out)
	return out, nil
}

// BulkImport implements [Store.BulkImport].
func (s *MemStore) BulkImport(ctx context.Context, items []types.PracticeItem) (int, error) {
	for i, it := range items {
		if err := s.Add(ctx, it); err != nil {
			return i, fmt.Errorf("catalog: bulk import item %d: %w", i, err)
		}
	}
	return len(items), nil
}

// Len returns the number of stored items.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// matching returns the items satisfying opts sorted by ID.
// The caller must hold at least a read lock.
func (s *MemStore) matching(opts ListOptions) []types.PracticeItem {
	query := strings.ToLower(strings.TrimSpace(opts.Query))

	out := make([]types.PracticeItem, 0, len(s.items))
	for _, it := range s.items {
		if opts.Category != "" && it.Category != opts.Category {
			continue
		}
		if opts.Difficulty != "" && it.Difficulty != opts.Difficulty {
			continue
		}
		if opts.Kind != "" && it.Kind != opts.Kind {
			continue
		}
		if query != "" && !matchesQuery(it, query) {
			continue
		}
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b types.PracticeItem) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func matchesQuery(it types.PracticeItem, query string) bool {
	for _, field := range []string{it.Text, it.Definition, it.Category, it.Phonetic} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
