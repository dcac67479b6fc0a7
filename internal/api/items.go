package api

import (
	"net/http"
	"strconv"

	"github.com/MrWong99/enunciate/internal/catalog"
	"github.com/MrWong99/enunciate/pkg/types"
)

// listOptions reads category, difficulty, kind and q from the query string.
func listOptions(r *http.Request) (catalog.ListOptions, error) {
	q := r.URL.Query()
	opts := catalog.ListOptions{
		Category:   q.Get("category"),
		Difficulty: types.Difficulty(q.Get("difficulty")),
		Kind:       types.ItemKind(q.Get("kind")),
		Query:      q.Get("q"),
	}
	if opts.Difficulty != "" && !opts.Difficulty.IsValid() {
		return opts, badRequest("unknown difficulty %q", opts.Difficulty)
	}
	if opts.Kind != "" && !opts.Kind.IsValid() {
		return opts, badRequest("unknown kind %q", opts.Kind)
	}
	return opts, nil
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.catalog.List(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []types.PracticeItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) randomItem(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.rngMu.Lock()
	item, err := s.catalog.Random(r.Context(), s.rng, opts)
	s.rngMu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, r, badRequest("item id must be an integer"))
		return
	}
	item, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.catalog.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}
