package directory

import (
	"context"
	"log"

	"intranet/api/internal/store"
)

// Store is the directory slice of the database layer.
type Store interface {
	GetCollaborator(ctx context.Context, email string) (store.Collaborator, error)
	ListCollaboratorsByEmail(ctx context.Context, emails []string) ([]store.Collaborator, error)
}

// Resolver answers email lookups against the HR view, consulting the Redis
// cache first. cache may be nil, in which case every lookup hits the view.
type Resolver struct {
	store Store
	cache *Cache
}

func NewResolver(directoryStore Store, cache *Cache) *Resolver {
	return &Resolver{store: directoryStore, cache: cache}
}

// Lookup resolves one email by exact match. A miss propagates the store's
// not-found error untouched.
func (r *Resolver) Lookup(ctx context.Context, email string) (store.Collaborator, error) {
	if r.cache != nil {
		if item, ok, err := r.cache.Get(ctx, email); err == nil && ok {
			return item, nil
		} else if err != nil {
			log.Printf("directory: cache get failed, falling through to db: %v", err)
		}
	}

	item, err := r.store.GetCollaborator(ctx, email)
	if err != nil {
		return store.Collaborator{}, err
	}
	if r.cache != nil {
		if err := r.cache.Put(ctx, item); err != nil {
			log.Printf("directory: cache put failed: %v", err)
		}
	}
	return item, nil
}

// LookupAll batch-resolves a set of emails in one database round trip for
// the cache misses. Unknown emails are absent from the returned map.
func (r *Resolver) LookupAll(ctx context.Context, emails []string) (map[string]store.Collaborator, error) {
	resolved := make(map[string]store.Collaborator, len(emails))
	var misses []string

	for _, email := range emails {
		if _, seen := resolved[email]; seen {
			continue
		}
		if r.cache != nil {
			if item, ok, err := r.cache.Get(ctx, email); err == nil && ok {
				resolved[email] = item
				continue
			} else if err != nil {
				log.Printf("directory: cache get failed, falling through to db: %v", err)
			}
		}
		misses = appendUnique(misses, email)
	}

	if len(misses) == 0 {
		return resolved, nil
	}

	items, err := r.store.ListCollaboratorsByEmail(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		resolved[item.Email] = item
		if r.cache != nil {
			if err := r.cache.Put(ctx, item); err != nil {
				log.Printf("directory: cache put failed: %v", err)
			}
		}
	}
	return resolved, nil
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
