package spec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// CanonicalJSON marshals v the way every determinism property in spec.md §8
// depends on. encoding/json already sorts map[string]any keys and preserves
// struct field declaration order, which is sufficient for byte-identical
// output across repeated calls and processes — no extra reordering pass is
// needed here, just a single, exclusively-used marshal path so every caller
// gets the same guarantee.
func CanonicalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// StateToken computes the opaque hash identifying a (form_id, spec_version,
// answers) pair used by hosts to detect stale submissions (spec.md §4.8).
// It is a pure function of its inputs.
func StateToken(formID, specVersion string, answers any) string {
	payload := struct {
		FormID      string `json:"form_id"`
		SpecVersion string `json:"spec_version"`
		Answers     any    `json:"answers"`
	}{formID, specVersion, answers}

	b, err := CanonicalJSON(payload)
	if err != nil {
		// CanonicalJSON only fails on unmarshalable Go values (channels,
		// funcs); answers is always decoded JSON, so this path is
		// unreachable in practice. Fall back to a stable-ish token rather
		// than panicking, since state tokens are advisory, not a security
		// boundary.
		b = []byte(formID + "|" + specVersion)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
