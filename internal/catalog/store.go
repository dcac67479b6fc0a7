// Package catalog holds the practice items learners can choose from.
//
// Items are reference data: loaded once from a YAML catalog file (or the
// embedded default) and then only read. The [Store] interface exists so the
// HTTP API and CLI can be tested against a small in-memory catalog.
package catalog

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/MrWong99/enunciate/pkg/types"
)

// ErrNotFound is returned by Get when the requested item does not exist.
var ErrNotFound = errors.New("catalog: item not found")

// ErrDuplicateID is returned by Add when an item with the same ID exists.
var ErrDuplicateID = errors.New("catalog: item with that ID already exists")

// ErrEmpty is returned by Random when the catalog holds no matching items.
var ErrEmpty = errors.New("catalog: no items")

// Store provides read access to practice items plus the mutations needed to
// populate it at startup.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Add inserts a new item after validating it.
	// Returns [ErrDuplicateID] if an item with the same ID exists.
	Add(ctx context.Context, item types.PracticeItem) error

	// Get retrieves an item by ID.
	// Returns [ErrNotFound] when no item with that ID exists.
	Get(ctx context.Context, id int) (types.PracticeItem, error)

	// List returns the items matching opts ordered by ID.
	// An empty [ListOptions] returns all items.
	List(ctx context.Context, opts ListOptions) ([]types.PracticeItem, error)

	// Random returns one item matching opts, chosen with rng.
	// Returns [ErrEmpty] when nothing matches.
	Random(ctx context.Context, rng *rand.Rand, opts ListOptions) (types.PracticeItem, error)

	// Categories returns the distinct categories in use, sorted.
	Categories(ctx context.Context) ([]string, error)

	// BulkImport adds items in order. It stops at the first failure and
	// returns the number imported so far.
	BulkImport(ctx context.Context, items []types.PracticeItem) (int, error)
}

// ListOptions narrows the result set of [Store.List].
// All non-zero fields are applied as AND conditions.
type ListOptions struct {
	// Category restricts results to one category.
	Category string

	// Difficulty restricts results to one difficulty level.
	Difficulty types.Difficulty

	// Kind restricts results to words or phrases.
	Kind types.ItemKind

	// Query is a case-insensitive substring matched against the text,
	// definition, category and phonetic transcription. Surrounding
	// whitespace is ignored; an empty query matches everything.
	Query string
}
