package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the encoding
// to change without colliding with older fingerprints.
const (
	DomainModule = "rulec/module/v1"
	DomainSource = "rulec/source/v1"
	DomainOutput = "rulec/output/v1"
)

// hashWithDomain returns hex(SHA256(domain + 0x00 + data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes the canonical encoding of m. Two modules with the same
// structure, types and attributes share a fingerprint regardless of handle
// numbering.
func Fingerprint(m *Module) (string, error) {
	data, err := MarshalCanonical(m.Canonical())
	if err != nil {
		return "", fmt.Errorf("Fingerprint: %w", err)
	}
	return hashWithDomain(DomainModule, data), nil
}

// SourceFingerprint hashes raw input bytes.
func SourceFingerprint(src []byte) string {
	return hashWithDomain(DomainSource, src)
}

// OutputFingerprint hashes rendered back-end text.
func OutputFingerprint(text string) string {
	return hashWithDomain(DomainOutput, []byte(text))
}
