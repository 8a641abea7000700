/*
Copyright 2025 The Antfly Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package xpartition

import "sort"

// PartitionGroup classifies a Range relative to the target partition of a
// resumed merge.
type PartitionGroup int

const (
	GroupLeftOfTarget PartitionGroup = iota
	GroupTarget
	GroupRightOfTarget
)

// PartitionMapping is the output of MapPartitions: three disjoint maps from
// Range to the resume key (possibly absent) that range should resume from.
type PartitionMapping struct {
	LeftOfTarget  map[Range]*ResumeKey
	Target        map[Range]*ResumeKey
	RightOfTarget map[Range]*ResumeKey
}

func newPartitionMapping() PartitionMapping {
	return PartitionMapping{
		LeftOfTarget:  make(map[Range]*ResumeKey),
		Target:        make(map[Range]*ResumeKey),
		RightOfTarget: make(map[Range]*ResumeKey),
	}
}

// Group returns which map a range was placed in, paired with its resume key.
func (m PartitionMapping) Group(r Range) (PartitionGroup, *ResumeKey, bool) {
	if rk, ok := m.Target[r]; ok {
		return GroupTarget, rk, true
	}
	if rk, ok := m.LeftOfTarget[r]; ok {
		return GroupLeftOfTarget, rk, true
	}
	if rk, ok := m.RightOfTarget[r]; ok {
		return GroupRightOfTarget, rk, true
	}
	return 0, nil, false
}

// MapPartitions classifies each of the active ranges as left-of, equal-to,
// or right-of the continuation token's target partition.
//
// The target resume key is token[0]; its captured Range is matched against
// active either by exact interval equality or, failing that, by
// subsumption (an active range whose interval fully contains the stored
// target interval — the partition was merged into a larger one since the
// token was issued). If neither match exists, the token no longer
// describes any live partition and MapPartitions fails with
// MalformedContinuation.
//
// Every other active range is matched against the remaining resume keys by
// interval equality; any active range with no matching resume key (because
// it appeared after a split) is classified purely by position against the
// target's MinInclusive, with a nil resume key so its cursor primes fresh.
func MapPartitions(active []Range, token MergeToken) (PartitionMapping, error) {
	mapping := newPartitionMapping()
	if len(token) == 0 {
		return mapping, newInvariant(nil, "empty merge token")
	}

	targetKey := token[0]
	targetRange, ok := resolveTargetRange(active, targetKey.Range)
	if !ok {
		return mapping, newMalformed(ErrTargetRangeNotFound, targetKey.Range.ID)
	}
	rk := targetKey
	mapping.Target[targetRange] = &rk

	byInterval := make(map[[2]string]*ResumeKey, len(token)-1)
	for i := 1; i < len(token); i++ {
		k := token[i]
		byInterval[[2]string{k.Range.MinInclusive, k.Range.MaxExclusive}] = &token[i]
	}

	for _, r := range active {
		if r.Equal(targetRange) {
			continue
		}
		if found, ok := byInterval[[2]string{r.MinInclusive, r.MaxExclusive}]; ok {
			place(mapping, r, found, targetRange.MinInclusive)
			continue
		}
		place(mapping, r, nil, targetRange.MinInclusive)
	}

	return mapping, nil
}

func place(mapping PartitionMapping, r Range, rk *ResumeKey, targetMin string) {
	if r.before(targetMin) {
		mapping.LeftOfTarget[r] = rk
	} else {
		mapping.RightOfTarget[r] = rk
	}
}

// resolveTargetRange finds the active range that the token's stored target
// range maps onto: exact interval match first, then subsumption.
func resolveTargetRange(active []Range, stored Range) (Range, bool) {
	for _, r := range active {
		if r.Equal(stored) {
			return r, true
		}
	}
	for _, r := range active {
		if r.Contains(stored) {
			return r, true
		}
	}
	return Range{}, false
}

// sortRangesByMin sorts ranges by MinInclusive, matching the input
// ordering MapPartitions expects ("sorted by min" per the mapping
// contract). Provided for callers assembling the active set from an
// unordered source (e.g. DocumentContainer.ChildRanges responses).
func sortRangesByMin(ranges []Range) []Range {
	out := append([]Range(nil), ranges...)
	sort.Slice(out, func(i, j int) bool { return out[i].MinInclusive < out[j].MinInclusive })
	return out
}
