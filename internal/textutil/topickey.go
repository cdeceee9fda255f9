package textutil

import "strings"

const maxTopicKeyLength = 100

// NormalizeTopicKey converts a candidate title into the slug used for
// reservation claims: folded, lowercased, stripped of everything but letters,
// digits, spaces, and dashes, with whitespace runs collapsed to single dashes
// and the result truncated to 100 characters.
func NormalizeTopicKey(title string) string {
	lowered := strings.ToLower(FoldDiacritics(strings.TrimSpace(title)))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			b.WriteByte(' ')
		}
	}

	key := strings.Join(strings.Fields(b.String()), "-")
	key = strings.Trim(key, "-")
	if len(key) > maxTopicKeyLength {
		key = strings.Trim(key[:maxTopicKeyLength], "-")
	}
	return key
}
