package http

import (
	"errors"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/cristianortiz/lotsEngine/internal/shared/apperr"
	"github.com/cristianortiz/lotsEngine/internal/shared/storage"
	"github.com/cristianortiz/lotsEngine/internal/shared/validation"
)

// toAPIError maps domain errors to transport errors. Unknown errors pass
// through and render as 500.
func toAPIError(err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return apperr.Validation(err, verrs)
	case errors.Is(err, domain.ErrAuctionClosed):
		return apperr.Validation(err, map[string][]string{"Auction state": {"Auction closed"}})
	case errors.Is(err, domain.ErrLotNotDraft):
		return apperr.Validation(err, map[string][]string{"Can't be edited": {"Only draft lots can be edited"}})
	case errors.Is(err, storage.ErrEmptyKey):
		return apperr.Validation(err, map[string][]string{"documentKey": {"is required"}})
	case errors.Is(err, domain.ErrLotNotFound),
		errors.Is(err, domain.ErrAuctionNotFound),
		errors.Is(err, domain.ErrMediaNotFound),
		errors.Is(err, domain.ErrDocumentNotFound):
		return apperr.NotFound(err)
	case errors.Is(err, domain.ErrNotAuthorized):
		return apperr.NotAuthorized(err)
	}
	return err
}
