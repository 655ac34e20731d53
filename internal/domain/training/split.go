package training

import (
	"math"
	"math/rand"
	"sort"
)

// ValidationFraction is the share of each category held out for validation.
const ValidationFraction = 0.2

// Split partitions row indices 0..n-1 into train and validation sets using a
// seeded shuffle. The validation set has ceil(fraction*n) rows. Both returned
// slices are in ascending order.
func Split(n int, fraction float64, seed int64) (train, validation []int) {
	if n <= 0 {
		return nil, nil
	}
	k := int(math.Ceil(fraction * float64(n)))
	if k > n {
		k = n
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec // deterministic seed for a reproducible split
	validation = append([]int(nil), perm[:k]...)
	train = append([]int(nil), perm[k:]...)
	sort.Ints(validation)
	sort.Ints(train)
	return train, validation
}

// MeanAbsoluteError returns mean(|predicted - actual|), or NaN for empty input.
func MeanAbsoluteError(predicted, actual []float64) float64 {
	if len(predicted) == 0 || len(predicted) != len(actual) {
		return math.NaN()
	}
	s := 0.0
	for i := range predicted {
		s += math.Abs(predicted[i] - actual[i])
	}
	return s / float64(len(predicted))
}
