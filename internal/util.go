package internal

// TruncateRightWithSuffix keeps the first runes of s so that, together with suffix, the result has at most n runes.
//
// s is returned as-is if it is already short enough.
func TruncateRightWithSuffix(s string, n int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	keep := max(0, n-len([]rune(suffix)))
	return string(runes[:keep]) + suffix
}

// TruncateLeftWithPrefix keeps the last runes of s so that, together with prefix, the result has at most n runes.
//
// s is returned as-is if it is already short enough. Useful for paths where the end is the interesting part.
func TruncateLeftWithPrefix(s string, n int, prefix string) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	keep := max(0, n-len([]rune(prefix)))
	return prefix + string(runes[len(runes)-keep:])
}
