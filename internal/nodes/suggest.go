package nodes

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the id closest to want among ids, for "did you mean"
// hints. Matches further than a third of the longer string are dropped.
func Suggest(want string, ids []string) (string, bool) {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return "", false
	}
	best, bestDist := "", -1
	for _, id := range ids {
		d := levenshtein.ComputeDistance(want, strings.ToLower(id))
		if bestDist < 0 || d < bestDist {
			best, bestDist = id, d
		}
	}
	if bestDist < 0 || bestDist > max(len(want), len(best))/3 {
		return "", false
	}
	return best, true
}
