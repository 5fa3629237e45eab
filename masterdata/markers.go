package masterdata

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// MarkerPattern matches image placeholders such as <<IMAGE_3>>.
var MarkerPattern = regexp.MustCompile(`<<IMAGE_(\d+)>>`)

// Marker renders the placeholder token for ordinal n.
func Marker(n int) string {
	return fmt.Sprintf("<<IMAGE_%d>>", n)
}

// ExtractMarkers returns the distinct positive ordinals referenced in text,
// sorted ascending. The result does not depend on marker order or repetition.
func ExtractMarkers(text string) []int {
	seen := map[int]bool{}
	out := []int{}
	for _, m := range MarkerPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// unionMarkers merges sorted ordinal sets into one sorted, deduplicated set.
func unionMarkers(sets ...[]int) []int {
	seen := map[int]bool{}
	out := []int{}
	for _, set := range sets {
		for _, n := range set {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Ints(out)
	return out
}
