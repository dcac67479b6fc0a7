package catalog_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/MrWong99/enunciate/internal/catalog"
	"github.com/MrWong99/enunciate/pkg/types"
)

func defaultStore(t *testing.T) *catalog.MemStore {
	t.Helper()
	s, err := catalog.Open(context.Background(), "")
	if err != nil {
		t.Fatalf("catalog.Open(default): %v", err)
	}
	return s
}

func ids(items []types.PracticeItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestMemStore_AddGet(t *testing.T) {
	t.Parallel()

	s := catalog.NewMemStore()
	ctx := context.Background()
	it := types.PracticeItem{ID: 7, Text: "hello", Kind: types.KindWord, Difficulty: types.Beginner}

	if err := s.Add(ctx, it); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := s.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != it {
		t.Errorf("Get = %+v, want %+v", got, it)
	}

	if err := s.Add(ctx, it); !errors.Is(err, catalog.ErrDuplicateID) {
		t.Errorf("Add duplicate: err = %v, want ErrDuplicateID", err)
	}
	if _, err := s.Get(ctx, 99); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Get missing: err = %v, want ErrNotFound", err)
	}
}

func TestMemStore_AddRejectsInvalid(t *testing.T) {
	t.Parallel()

	var s catalog.MemStore // zero value is usable
	err := s.Add(context.Background(), types.PracticeItem{ID: 1, Text: "", Kind: types.KindWord, Difficulty: types.Beginner})
	if err == nil {
		t.Fatal("Add(empty text): expected error, got nil")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d after rejected add, want 0", s.Len())
	}
}

func TestMemStore_List(t *testing.T) {
	t.Parallel()

	s := defaultStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		opts catalog.ListOptions
		want []int
	}{
		{"category", catalog.ListOptions{Category: "adjectives"}, []int{11, 12, 13, 14, 15}},
		{"difficulty", catalog.ListOptions{Difficulty: types.Beginner}, []int{6, 8, 11, 14, 16, 17, 101, 102}},
		{"kind", catalog.ListOptions{Kind: types.KindPhrase}, []int{101, 102, 103, 104, 105}},
		{"query trims and ignores case", catalog.ListOptions{Query: "  KNOW "}, []int{7, 8, 16, 103}},
		{"query and category", catalog.ListOptions{Query: "greeting", Category: "greetings"}, []int{101, 105}},
		{"phonetic query", catalog.ListOptions{Query: "θ"}, []int{102}},
		{"no match", catalog.ListOptions{Query: "zebra"}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := s.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if !slices.Equal(ids(got), tt.want) {
				t.Errorf("List(%+v) ids = %v, want %v", tt.opts, ids(got), tt.want)
			}
		})
	}
}

func TestMemStore_ListAll(t *testing.T) {
	t.Parallel()

	s := defaultStore(t)
	all, err := s.List(context.Background(), catalog.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 22 {
		t.Errorf("len(List) = %d, want 22", len(all))
	}
	if !slices.IsSortedFunc(all, func(a, b types.PracticeItem) int { return a.ID - b.ID }) {
		t.Error("List result not sorted by ID")
	}
}

func TestMemStore_Categories(t *testing.T) {
	t.Parallel()

	s := defaultStore(t)
	got, err := s.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	want := []string{"adjectives", "courtesy", "greetings", "learning", "vocabulary"}
	if !slices.Equal(got, want) {
		t.Errorf("Categories = %v, want %v", got, want)
	}
}

func TestMemStore_Random(t *testing.T) {
	t.Parallel()

	s := defaultStore(t)
	ctx := context.Background()

	a, err := s.Random(ctx, rand.New(rand.NewPCG(1, 2)), catalog.ListOptions{Kind: types.KindPhrase})
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if a.Kind != types.KindPhrase {
		t.Errorf("Random(kind=phrase) returned %q", a.Kind)
	}
	b, _ := s.Random(ctx, rand.New(rand.NewPCG(1, 2)), catalog.ListOptions{Kind: types.KindPhrase})
	if a.ID != b.ID {
		t.Errorf("Random with equal seeds differs: %d vs %d", a.ID, b.ID)
	}

	if _, err := s.Random(ctx, rand.New(rand.NewPCG(1, 2)), catalog.ListOptions{Query: "zebra"}); !errors.Is(err, catalog.ErrEmpty) {
		t.Errorf("Random(no match): err = %v, want ErrEmpty", err)
	}
}

func TestMemStore_BulkImportStopsAtFailure(t *testing.T) {
	t.Parallel()

	s := catalog.NewMemStore()
	items := []types.PracticeItem{
		{ID: 1, Text: "a", Kind: types.KindWord, Difficulty: types.Beginner},
		{ID: 1, Text: "b", Kind: types.KindWord, Difficulty: types.Beginner},
		{ID: 3, Text: "c", Kind: types.KindWord, Difficulty: types.Beginner},
	}
	n, err := s.BulkImport(context.Background(), items)
	if !errors.Is(err, catalog.ErrDuplicateID) {
		t.Errorf("BulkImport: err = %v, want ErrDuplicateID", err)
	}
	if n != 1 {
		t.Errorf("BulkImport: n = %d, want 1", n)
	}
}

func TestMemStore_ConcurrentReads(t *testing.T) {
	t.Parallel()

	s := defaultStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.List(ctx, catalog.ListOptions{Query: "e"}); err != nil {
				t.Errorf("List: %v", err)
			}
			if _, err := s.Get(ctx, 1+i%17); err != nil {
				t.Errorf("Get(%d): %v", 1+i%17, err)
			}
		}()
	}
	wg.Wait()
}

func TestValidateContent(t *testing.T) {
	t.Parallel()

	ok := types.PracticeItem{Text: "cat", Kind: types.KindWord, Difficulty: types.Beginner}
	if err := catalog.ValidateContent(ok); err != nil {
		t.Errorf("ValidateContent(%+v): unexpected error: %v", ok, err)
	}
	if err := catalog.Validate(ok); err == nil {
		t.Error("Validate without an ID: expected error, got nil")
	}

	tests := []struct {
		name string
		item types.PracticeItem
	}{
		{"blank text", types.PracticeItem{Text: "   ", Kind: types.KindWord, Difficulty: types.Beginner}},
		{"unknown difficulty", types.PracticeItem{Text: "cat", Kind: types.KindWord, Difficulty: "expert"}},
		{"missing difficulty", types.PracticeItem{Text: "cat", Kind: types.KindWord}},
		{"unknown kind", types.PracticeItem{Text: "cat", Kind: "sentence", Difficulty: types.Beginner}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := catalog.ValidateContent(tt.item); err == nil {
				t.Errorf("ValidateContent(%+v): expected error, got nil", tt.item)
			}
		})
	}
}
