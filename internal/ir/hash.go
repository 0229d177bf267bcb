package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainCapabilities = "graft/capabilities/v1"
	DomainExport       = "graft/export/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CapabilitiesDigest computes the digest of a capability listing.
// Two tables with identical listings share a digest.
func CapabilitiesDigest(infos []CapabilityInfo) (string, error) {
	list := make([]any, len(infos))
	for i, info := range infos {
		list[i] = map[string]any{
			"namespace": string(info.Namespace),
			"level":     info.Level,
			"name":      info.Name,
			"mode":      info.Mode,
			"kind":      info.Kind,
		}
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("CapabilitiesDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCapabilities, canonical), nil
}

// ExportDigest computes the digest of a module export.
func ExportDigest(export any) (string, error) {
	canonical, err := MarshalCanonical(export)
	if err != nil {
		return "", fmt.Errorf("ExportDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainExport, canonical), nil
}
