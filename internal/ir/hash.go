package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSchema = "irgraph/schema/v1"
	DomainGraph  = "irgraph/graph/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaHash fingerprints an exported registry document. Tools that consume
// the schema compare hashes to detect catalog changes.
func SchemaHash(doc any) (string, error) {
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("SchemaHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchema, canonical), nil
}

// GraphFingerprint hashes an encoded node listing. Two graphs built by the
// same sequence of calls have the same fingerprint.
func GraphFingerprint(nodes []any) (string, error) {
	canonical, err := MarshalCanonical(nodes)
	if err != nil {
		return "", fmt.Errorf("GraphFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGraph, canonical), nil
}

// MustSchemaHash is like SchemaHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSchemaHash(doc any) string {
	h, err := SchemaHash(doc)
	if err != nil {
		panic(err)
	}
	return h
}
