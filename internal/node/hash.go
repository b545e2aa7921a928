package node

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// StableHash canonicalizes value through encoding/json — which sorts
// map keys and emits no insignificant whitespace — and returns the hex
// blake3 digest. Two structurally equivalent values (same keys, same
// values, different map iteration order) always hash identically.
func StableHash(value any) (string, error) {
	canonical, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("canonicalize option value: %w", err)
	}
	sum := blake3.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// ComputeRequestID derives a stable, content-addressed request id from
// a request type name and its input, matching the spec's "typically a
// hash of request type + input" convention. Callers that already have
// a natural id (e.g. a config file path) may ignore this and supply
// their own.
func ComputeRequestID(requestType string, input any) (string, error) {
	hash, err := StableHash(input)
	if err != nil {
		return "", fmt.Errorf("compute request id for %s: %w", requestType, err)
	}
	return requestType + ":" + hash, nil
}
