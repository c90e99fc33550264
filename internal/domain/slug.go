package domain

import "strings"

// Uniq converts a display name into the stable slug used as the join key
// across every ingestion source: lowercase, with runs of non-alphanumeric
// characters collapsed into a single dash. It is idempotent, so slugs can
// be re-slugged safely at any boundary.
func Uniq(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pending := false

	for _, r := range strings.ToLower(name) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			if b.Len() > 0 {
				pending = true
			}
			continue
		}
		if pending {
			b.WriteByte('-')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Letters strips everything but ASCII letters and uppercases the rest.
// Used to normalize symbol and quote codes from loosely-typed sources.
func Letters(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}
