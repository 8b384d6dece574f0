package service

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
)

// mapStoreError translates driver errors into the domain taxonomy. Errors
// that already carry a taxonomy sentinel pass through.
func mapStoreError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case isTaxonomy(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	case errors.Is(err, store.ErrAlreadyExists):
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, what)
	default:
		return err
	}
}

func isTaxonomy(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrExpired) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrConflict)
}
