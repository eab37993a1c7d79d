package analysis

import (
	"fmt"
	"strings"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// DefaultVersion is the current analysis algorithm version. Bumping it
// invalidates every previously computed fingerprint and analysis id.
const DefaultVersion = "1.1.0"

// hash32 computes a 32-bit string hash (the classic shift-and-subtract form)
// and renders it as a fixed-width lowercase hex string. It is stable across
// runs and platforms; it is not cryptographic.
func hash32(s string) string {
	var h int32
	for i := 0; i < len(s); i++ {
		h = (h << 5) - h + int32(s[i])
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return fmt.Sprintf("%08x", v)
}

// Fingerprint derives the cache key for a submission. Identical core fields
// under the same algorithm version always produce the same fingerprint;
// duration and resolution contribute when present.
func Fingerprint(sub *models.VideoSubmission, version string) string {
	parts := []string{"fp", sub.FileName, fmt.Sprintf("%d", sub.FileSize), version}
	if sub.Duration != "" {
		parts = append(parts, sub.Duration)
	}
	if sub.Resolution != "" {
		parts = append(parts, sub.Resolution)
	}
	return hash32(strings.Join(parts, "-"))
}

// AnalysisID derives the deterministic analysis identifier. It uses the same
// hashing scheme as Fingerprint over a distinct seed so the two values stay
// independent.
func AnalysisID(sub *models.VideoSubmission, version string) string {
	return hash32(fmt.Sprintf("id-%s-%d-%s", sub.FileName, sub.FileSize, version))
}
