package service

import (
	"errors"

	"github.com/geocoder89/civicchain/internal/domain/identity"
	"github.com/geocoder89/civicchain/internal/domain/user"
)

var expected = []error{
	user.ErrInvalidInput,
	user.ErrDuplicateUser,
	user.ErrInvalidCredentials,
	user.ErrNotFound,
	identity.ErrUnauthorized,
	identity.ErrInvalidProof,
}

// IsInternal reports whether err is outside the expected error kinds.
func IsInternal(err error) bool {
	if err == nil {
		return false
	}

	for _, target := range expected {
		if errors.Is(err, target) {
			return false
		}
	}

	return true
}
