package classify

import "golang.org/x/text/unicode/norm"

// DefaultMaxLength is the rune budget applied before inference when a
// classifier does not configure its own. RoBERTa-class models see 512
// tokens at most; anything beyond this many runes cannot influence the
// score, it only costs tokenizer time.
const DefaultMaxLength = 2048

// NormalizeText applies NFKC normalization so mathematical/stylistic
// Unicode variants score like their ASCII equivalents.
//
// Examples:
//
//	𝐡𝐚𝐭𝐞 → hate (mathematical bold)
//	ｈａｔｅ → hate (fullwidth)
func NormalizeText(text string) string {
	return norm.NFKC.String(text)
}

// PrepareText normalizes and head-truncates text for inference. Text
// longer than maxLength runes is deterministically cut from the front so
// every valid string produces a score rather than an error. A maxLength
// of zero or below falls back to DefaultMaxLength.
func PrepareText(text string, maxLength int) (prepared string, truncated bool) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	prepared = NormalizeText(text)

	runes := []rune(prepared)
	if len(runes) > maxLength {
		return string(runes[:maxLength]), true
	}
	return prepared, false
}
