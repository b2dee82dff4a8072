package provider

import "unicode"

// SplitTokens splits a single-shot reply into stream fragments on whitespace
// boundaries. Whitespace runs are kept as their own tokens, so joining the
// tokens in order reproduces the input byte-for-byte.
func SplitTokens(s string) []string {
	if s == "" {
		return nil
	}

	var tokens []string
	runes := []rune(s)
	start := 0
	inSpace := unicode.IsSpace(runes[0])

	for i, r := range runes {
		if unicode.IsSpace(r) != inSpace {
			tokens = append(tokens, string(runes[start:i]))
			start = i
			inSpace = !inSpace
		}
	}
	tokens = append(tokens, string(runes[start:]))

	return tokens
}
