package catalog

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/domain"
)

// Resolver translates a user-supplied token into a catalog entry. Numeric
// tokens are exact-identifier lookups; anything else is a case-insensitive
// substring match over prompts and original filenames.
type Resolver struct {
	store  *Store
	folder cases.Caser
}

// NewResolver builds a resolver over the given store.
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store, folder: cases.Fold()}
}

// Resolve returns the entry the token refers to. It returns domain.ErrNotFound
// when nothing matches and a *domain.AmbiguousMatchError when a fuzzy token
// matches more than one entry.
func (r *Resolver) Resolve(token string) (*domain.CatalogEntry, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrNotFound
	}
	if id, err := strconv.ParseInt(token, 10, 64); err == nil && id > 0 {
		return r.store.Get(id)
	}

	needle := r.folder.String(token)
	var matches []domain.CatalogEntry
	for _, e := range r.store.List() {
		if strings.Contains(r.folder.String(e.Prompt), needle) ||
			strings.Contains(r.folder.String(e.OriginalFilename), needle) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return &matches[0], nil
	default:
		// List is identifier-ascending already, so candidates are too.
		return nil, &domain.AmbiguousMatchError{Token: token, Candidates: matches}
	}
}
