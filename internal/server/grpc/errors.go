package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// codeFor maps an error kind to a status code.
func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case common.IsAuthFailure(err):
		return codes.Unauthenticated
	case errors.Is(err, common.ErrEmailTaken), errors.Is(err, common.ErrDuplicateEmail):
		return codes.AlreadyExists
	case errors.Is(err, common.ErrDuplicateAddress), errors.Is(err, common.ErrVersionConflict):
		return codes.Aborted
	case errors.Is(err, common.ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, common.ErrorNotFound):
		return codes.NotFound
	case errors.Is(err, common.ErrIntegrityFailure):
		return codes.DataLoss
	case errors.Is(err, common.ErrStoreUnavailable):
		return codes.Unavailable
	case errors.Is(err, common.ErrBusy):
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}

// toStatus converts a service error into a status carrying only the public
// message. Server-side faults are logged with their full chain.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	code := codeFor(err)
	switch code {
	case codes.Internal, codes.DataLoss, codes.Unavailable:
		s.logger.Error(ctx, "request failed", "method", method, "code", code.String(), "error", err)
	}
	if code == codes.Canceled || code == codes.DeadlineExceeded {
		return status.Error(code, err.Error())
	}
	return status.Error(code, common.PublicMessage(err))
}
