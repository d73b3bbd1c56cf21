// Package signature derives stable fingerprints for outbound operations so
// that repeated submissions of the same payload can be recognized.
package signature

import (
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// tokenFields are anti-forgery fields that rotate between renders and must not
// influence the fingerprint.
var tokenFields = map[string]struct{}{
	"csrfmiddlewaretoken":        {},
	"csrf_token":                 {},
	"_csrf":                      {},
	"_token":                     {},
	"authenticity_token":         {},
	"__requestverificationtoken": {},
}

// IsTokenField reports whether name is an anti-forgery token field.
func IsTokenField(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if _, ok := tokenFields[lower]; ok {
		return true
	}
	return strings.Contains(lower, "csrf")
}

// Compute returns the signature of method+target+fields. Field keys are sorted
// so that key order never matters; values of a repeated key keep their order.
func Compute(method, target string, fields url.Values) string {
	return Digest(Canonical(method, target, fields))
}

// Canonical returns the pre-digest form of a signature. It is exported for
// debug logging.
func Canonical(method, target string, fields url.Values) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if IsTokenField(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(strings.ToUpper(strings.TrimSpace(method)))
	b.WriteByte('|')
	b.WriteString(strings.TrimSpace(target))
	b.WriteByte('|')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		for j, v := range fields[k] {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// Digest hashes a canonical string into a fixed-size hex key.
func Digest(canonical string) string {
	sum := blake2b.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
