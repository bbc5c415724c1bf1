package calculator

import (
	"fmt"
	"math"
)

func bound(v float64) *float64 { return &v }

// round2 rounds to two decimal places for display.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type rangeGroup struct {
	population string
	ranges     []Range
}

// groupRanges splits ranges by population, keeping the order in which each
// population first appears.
func groupRanges(ranges []Range) []rangeGroup {
	var groups []rangeGroup
	index := map[string]int{}
	for _, r := range ranges {
		i, ok := index[r.Population]
		if !ok {
			i = len(groups)
			index[r.Population] = i
			groups = append(groups, rangeGroup{population: r.Population})
		}
		groups[i].ranges = append(groups[i].ranges, r)
	}
	return groups
}

// ValidateRanges checks that each population's ranges are ordered, contiguous
// and non-overlapping. Integer ranges are contiguous when the next Min is the
// previous Max plus one; continuous ranges share their boundary. Only the
// last range of a population may be open-ended.
func ValidateRanges(ranges []Range, integer bool) error {
	if len(ranges) == 0 {
		return fmt.Errorf("no interpretation ranges")
	}
	for _, g := range groupRanges(ranges) {
		if err := validateRangeGroup(g.ranges, integer); err != nil {
			if g.population != "" {
				return fmt.Errorf("population %q: %w", g.population, err)
			}
			return err
		}
	}
	return nil
}

func validateRangeGroup(ranges []Range, integer bool) error {
	for i, r := range ranges {
		last := i == len(ranges)-1
		if r.Max == nil {
			if !last {
				return fmt.Errorf("range %d is open-ended but not last", i)
			}
			continue
		}
		if *r.Max < r.Min {
			return fmt.Errorf("range %d has max %g below min %g", i, *r.Max, r.Min)
		}
		if integer && r.MaxExclusive {
			return fmt.Errorf("range %d of an integer score excludes its max", i)
		}
		if last {
			continue
		}
		next := ranges[i+1].Min
		want := *r.Max
		if integer {
			want = *r.Max + 1
		}
		switch {
		case next < want:
			return fmt.Errorf("range %d overlaps range %d", i, i+1)
		case next > want:
			return fmt.Errorf("gap between range %d and range %d", i, i+1)
		}
	}
	return nil
}

// RangeFor returns the first range of population containing score.
func RangeFor(ranges []Range, population string, score float64) (Range, bool) {
	if math.IsNaN(score) {
		return Range{}, false
	}
	for _, r := range ranges {
		if r.Population != population || score < r.Min {
			continue
		}
		if r.below(score) {
			return r, true
		}
	}
	return Range{}, false
}

// classify is RangeFor for the built-in tables, whose ranges start at the
// lowest reachable score.
func classify(ranges []Range, population string, score float64) Range {
	r, _ := RangeFor(ranges, population, score)
	return r
}
