package initiative

import (
	"strings"

	"golang.org/x/text/width"
)

// NormalizeForSearch folds character width and lowercases a string so that
// half-width and full-width spellings of the same text compare equal
// ("ＤＸ" matches "dx"). Used for substring filters over Japanese fields.
func NormalizeForSearch(s string) string {
	return strings.ToLower(width.Fold.String(s))
}

// ContainsFold reports whether substr occurs in s under search normalization.
// An empty substr matches everything.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(NormalizeForSearch(s), NormalizeForSearch(substr))
}
