package policy

import (
	"fmt"
	"math"
	"sort"
	"time"

	"mediarc-hq/mediarc/pkg/inventory"
)

// Order selects the weighting scheme used to rank deletion candidates.
type Order string

const (
	// OrderNewer keeps the most contiguous recent history: weight is
	// size_bytes * age_days, so large old files go first.
	OrderNewer Order = "newer"

	// OrderSmaller keeps the most files: weight is size_bytes, so the
	// largest files go first regardless of age (ties favor older files).
	OrderSmaller Order = "smaller"

	// OrderSmallerNewer balances the two: weight is
	// size_bytes * 2^(age_days/30.4375), an exponential age decay with a
	// one-month half-life. A month of age doubles a file's effective size,
	// so neither dimension can fully dominate the other.
	OrderSmallerNewer Order = "smaller_newer"
)

// halfLifeDays is the mean length of a Gregorian month in days, used as the
// doubling period for the smaller_newer decay.
const halfLifeDays = 30.4375

// ParseOrder converts a CLI/config string into an Order.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case OrderNewer, OrderSmaller, OrderSmallerNewer:
		return Order(s), nil
	}
	return "", fmt.Errorf("unknown order %q (want newer, smaller, or smaller_newer)", s)
}

// Score computes the deletion weight of a file under the given order at the
// given instant. Higher weight means deleted earlier, for every order.
func Score(rec *inventory.FileRecord, order Order, now time.Time) float64 {
	ageDays := rec.AgeAt(now).Hours() / 24
	size := float64(rec.Size)
	switch order {
	case OrderSmaller:
		return size
	case OrderSmallerNewer:
		return size * math.Exp2(ageDays/halfLifeDays)
	default: // OrderNewer
		return size * ageDays
	}
}

// Assign computes and stores weights for every non-protected record in the
// tree. Protected records keep a zero weight; they never enter deletion
// ranking.
func Assign(tree *inventory.Tree, order Order, now time.Time) {
	for _, rec := range tree.Files {
		if rec.Protected {
			rec.Weight = 0
			continue
		}
		rec.Weight = Score(rec, order, now)
	}
}

// SortByDeletionPriority orders records descending by weight, so the first
// element is the preferred deletion. Ties break by older creation date
// first, then relative path ascending, keeping plans deterministic.
func SortByDeletionPriority(recs []*inventory.FileRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Weight != recs[j].Weight {
			return recs[i].Weight > recs[j].Weight
		}
		if !recs[i].Created.Equal(recs[j].Created) {
			return recs[i].Created.Before(recs[j].Created)
		}
		return recs[i].RelPath < recs[j].RelPath
	})
}
