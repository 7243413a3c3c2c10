package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
)

var kinds = []error{
	common.ErrorNotFound,
	common.ErrDuplicateEmail,
	common.ErrDuplicateAddress,
	common.ErrVersionConflict,
	common.ErrInvalidInput,
	common.ErrEmailTaken,
	common.ErrWalletInactive,
	common.ErrAddressMismatch,
	common.ErrInvalidCredentials,
	common.ErrEmailNotFound,
	common.ErrInvalidSession,
	common.ErrInvalidOrExpiredToken,
	common.ErrIntegrityFailure,
	common.ErrDerivationFailure,
	common.ErrStoreUnavailable,
	common.ErrBusy,
}

// storeErr passes classified errors and context errors through untouched and
// reports anything else coming out of the store as ErrStoreUnavailable.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
}

// notFoundAs replaces a repository miss with kind.
func notFoundAs(err, kind error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return kind
	}
	return storeErr(err)
}
