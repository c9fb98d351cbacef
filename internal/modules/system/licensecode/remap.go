// Package licensecode maps legacy regulator codes stored on brands to ISO
// country codes.
package licensecode

import "strings"

// table maps legacy regulator abbreviations to ISO 3166-1 alpha-2 codes. No
// value may also appear as a key, which keeps Remap idempotent. The strings are
// persisted state; changing a mapping needs a data migration.
var table = map[string]string{
	"UKGC":    "GB",
	"UK":      "GB",
	"MGA":     "MT",
	"SGA":     "SE",
	"DGA":     "DK",
	"ADM":     "IT",
	"AAMS":    "IT",
	"DGOJ":    "ES",
	"KSA":     "NL",
	"GGL":     "DE",
	"CUR":     "CW",
	"CURACAO": "CW",
	"EL":      "GR",
}

// Table returns a copy of the legacy-to-ISO mapping.
func Table() map[string]string {
	out := make(map[string]string, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}

// Lookup maps one code. Unknown codes come back trimmed with ok false.
func Lookup(code string) (string, bool) {
	trimmed := strings.TrimSpace(code)
	if iso, ok := table[trimmed]; ok {
		return iso, true
	}
	if iso, ok := table[strings.ToUpper(trimmed)]; ok {
		return iso, true
	}
	return trimmed, false
}

// Remap maps every code through the table and drops blanks and duplicates,
// keeping first-seen order. The result is never nil.
func Remap(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		mapped, _ := Lookup(code)
		if mapped == "" {
			continue
		}
		if _, dup := seen[mapped]; dup {
			continue
		}
		seen[mapped] = struct{}{}
		out = append(out, mapped)
	}
	return out
}

// Equal reports whether a and b hold the same codes in the same order.
func Equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
