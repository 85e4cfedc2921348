package services

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const defaultSlug = "user"

// Slug reduces name to lower-case ASCII letters and digits, folding accents
// ("José Núñez" → "josenunez"). Names with nothing left become "user".
func Slug(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var sb strings.Builder
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return defaultSlug
	}
	return sb.String()
}

// NextSearchKey returns base if free, else base followed by the smallest
// positive number not in taken.
func NextSearchKey(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, k := range taken {
		used[k] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base
	}
	for n := 1; ; n++ {
		k := base + strconv.Itoa(n)
		if _, ok := used[k]; !ok {
			return k
		}
	}
}
