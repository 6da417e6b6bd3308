package split

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/mzhdanov/finsent/internal/model"
)

// Splitter produces a deterministic stratified three-way split. The same
// records and seed always yield identical partitions.
type Splitter struct {
	testFraction       float64
	validationFraction float64
	seed               int64
}

// New creates a splitter from the split configuration.
func New(cfg model.SplitConfig) (*Splitter, error) {
	if cfg.TestFraction < 0 || cfg.TestFraction >= 1 {
		return nil, fmt.Errorf("test fraction %v outside [0,1)", cfg.TestFraction)
	}
	if cfg.ValidationFraction < 0 || cfg.ValidationFraction >= 1 {
		return nil, fmt.Errorf("validation fraction %v outside [0,1)", cfg.ValidationFraction)
	}
	return &Splitter{
		testFraction:       cfg.TestFraction,
		validationFraction: cfg.ValidationFraction,
		seed:               cfg.Seed,
	}, nil
}

// Split partitions records into train/validation/test.
//
// The test set is held out first over the full set, then the validation set
// over the remainder. Held-out sizes are ceil(fraction*n); per-class
// allocation uses largest remainders so every class proportion stays within
// one record of its proportion in the full set.
func (s *Splitter) Split(records []model.Record) (*model.Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("cannot split an empty record set")
	}

	rng := rand.New(rand.NewSource(s.seed))

	// Group record indices by class, then shuffle within each class. Class
	// order is fixed (label code order) so the rng consumption is stable.
	classes := make([][]int, model.NumLabels)
	for i, rec := range records {
		if !rec.Label.Valid() {
			return nil, fmt.Errorf("record %d: invalid label code %d", i, int(rec.Label))
		}
		classes[rec.Label] = append(classes[rec.Label], i)
	}
	for _, idxs := range classes {
		rng.Shuffle(len(idxs), func(a, b int) {
			idxs[a], idxs[b] = idxs[b], idxs[a]
		})
	}

	test, rest := holdOut(classes, s.testFraction)
	validation, trainClasses := holdOut(rest, s.validationFraction)

	return &model.Dataset{
		Train:      collect(records, flatten(trainClasses)),
		Validation: collect(records, validation),
		Test:       collect(records, test),
	}, nil
}

// holdOut removes ceil(fraction*n) indices across classes, allocating the
// per-class counts by largest remainder. Returns (held, remaining) grouped
// by class; held is flattened.
func holdOut(classes [][]int, fraction float64) (held []int, remaining [][]int) {
	total := 0
	for _, idxs := range classes {
		total += len(idxs)
	}

	want := int(math.Ceil(fraction * float64(total)))
	if want > total {
		want = total
	}

	counts := make([]int, len(classes))
	type rem struct {
		class int
		frac  float64
	}
	var rems []rem
	allocated := 0
	for c, idxs := range classes {
		exact := fraction * float64(len(idxs))
		counts[c] = int(math.Floor(exact))
		if counts[c] > len(idxs) {
			counts[c] = len(idxs)
		}
		allocated += counts[c]
		rems = append(rems, rem{class: c, frac: exact - math.Floor(exact)})
	}

	// Distribute the shortfall to classes with the largest fractional
	// remainders; ties break on class code for determinism.
	sort.SliceStable(rems, func(a, b int) bool {
		if rems[a].frac != rems[b].frac {
			return rems[a].frac > rems[b].frac
		}
		return rems[a].class < rems[b].class
	})
	for i := 0; allocated < want; i = (i + 1) % len(rems) {
		c := rems[i].class
		if counts[c] < len(classes[c]) {
			counts[c]++
			allocated++
		}
	}

	remaining = make([][]int, len(classes))
	for c, idxs := range classes {
		held = append(held, idxs[:counts[c]]...)
		remaining[c] = idxs[counts[c]:]
	}
	return held, remaining
}

func flatten(classes [][]int) []int {
	var out []int
	for _, idxs := range classes {
		out = append(out, idxs...)
	}
	return out
}

// collect materializes a partition in original corpus order.
func collect(records []model.Record, idxs []int) []model.Record {
	sorted := make([]int, len(idxs))
	copy(sorted, idxs)
	sort.Ints(sorted)

	out := make([]model.Record, 0, len(sorted))
	for _, i := range sorted {
		out = append(out, records[i])
	}
	return out
}
