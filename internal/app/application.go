// Package app wires storage and services into a single application value.
package app

import (
	"context"

	"github.com/Vukotije/audiotheca/internal/app/services/accounts"
	"github.com/Vukotije/audiotheca/internal/app/services/catalog"
	"github.com/Vukotije/audiotheca/internal/app/services/reviews"
	"github.com/Vukotije/audiotheca/internal/app/storage"
	"github.com/Vukotije/audiotheca/internal/app/storage/memory"
	"github.com/Vukotije/audiotheca/internal/logging"
)

// Stores carries the storage implementations for each aggregate. Any nil
// field falls back to the in-memory store, which keeps tests and local runs
// free of external dependencies.
type Stores struct {
	Users   storage.UserStore
	Genres  storage.GenreStore
	Artists storage.ArtistStore
	Works   storage.WorkStore
	Reviews storage.ReviewStore
}

func (s *Stores) applyDefaults() {
	var mem *memory.Store
	fallback := func() *memory.Store {
		if mem == nil {
			mem = memory.New()
		}
		return mem
	}

	if s.Users == nil {
		s.Users = fallback()
	}
	if s.Genres == nil {
		s.Genres = fallback()
	}
	if s.Artists == nil {
		s.Artists = fallback()
	}
	if s.Works == nil {
		s.Works = fallback()
	}
	if s.Reviews == nil {
		s.Reviews = fallback()
	}
}

// Application bundles the platform services.
type Application struct {
	Accounts *accounts.Service
	Catalog  *catalog.Service
	Reviews  *reviews.Service

	stores Stores
	log    *logging.Logger
}

// New constructs the application from the given stores.
func New(stores Stores, log *logging.Logger) *Application {
	if log == nil {
		log = logging.NewDefault("app")
	}
	stores.applyDefaults()

	return &Application{
		Accounts: accounts.New(stores.Users, log),
		Catalog:  catalog.New(stores.Genres, stores.Artists, stores.Works, stores.Reviews, stores.Users, log),
		Reviews:  reviews.New(stores.Reviews, stores.Works, stores.Users, log),
		stores:   stores,
		log:      log,
	}
}

// Stores exposes the resolved storage implementations.
func (a *Application) Stores() Stores {
	return a.stores
}

// SeedAdmin provisions the initial admin account if configured and absent.
func (a *Application) SeedAdmin(ctx context.Context, username, email, password string) error {
	return a.Accounts.EnsureAdmin(ctx, username, email, password)
}
