package walker

import (
	"sort"
	"strconv"
	"strings"

	"framefill/internal/domain/entity"
)

// CompareIndexPath orders index paths segment by segment, numerically, so
// "2" < "10" and "1.2" < "1.10". A path sorts before its descendants.
func CompareIndexPath(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func compareSegment(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

func SortFrames(frames []entity.FrameNode) {
	sort.SliceStable(frames, func(i, j int) bool {
		return CompareIndexPath(frames[i].IndexPath, frames[j].IndexPath) < 0
	})
}
