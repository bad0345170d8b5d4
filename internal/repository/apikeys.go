package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// HashAPIKey returns the stored form of a bearer token.
func HashAPIKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// KeyResolver resolves bearer tokens to operator IDs.
type KeyResolver struct {
	Keys APIKeyRepository
}

// ResolveOperator returns the operator owning token, or an empty string for
// an unknown token.
func (r *KeyResolver) ResolveOperator(ctx context.Context, token string) (string, error) {
	operatorID, err := r.Keys.LookupKey(ctx, HashAPIKey(token))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return operatorID, nil
}
