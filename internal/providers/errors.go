package providers

import (
	"errors"

	"github.com/bft-labs/guardian/internal/domain"
)

// errNotFound marks a 404 from a provider so adapters can map it to
// their own semantics (a removal of a missing user succeeds, a missing
// history record means no activity).
var errNotFound = errors.New("not found")

func transientErr(provider, op string, err error) error {
	return &domain.ProviderError{
		Kind:     domain.TransientError,
		Provider: provider,
		Op:       op,
		Err:      err,
	}
}

func permanentErr(provider, op string, err error) error {
	return &domain.ProviderError{
		Kind:     domain.PermanentError,
		Provider: provider,
		Op:       op,
		Err:      err,
	}
}

func notFoundErr(provider, op string) error {
	return permanentErr(provider, op, errNotFound)
}

func isNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}
