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

import (
	"fmt"
	"strings"
)

// FilterPlaceholder is the literal substring a query's text must contain
// exactly once per ORDER BY conjunct position; the synthesized filter is
// substituted in its place before the query is sent to a partition.
const FilterPlaceholder = "{documentdb-formattableorderbyquery-filter}"

// ResumeFilters holds the three per-partition SQL boolean fragments
// produced from a resume key: the filter a left-of-target partition
// should apply, the one the target partition should apply (always
// "true", since its server_token already positions it precisely), and
// the one a right-of-target partition should apply.
type ResumeFilters struct {
	Left   string
	Target string
	Right  string
}

// initialFilters is what every partition uses when there is no resume
// state at all (fresh query, no continuation token).
func initialFilters() ResumeFilters {
	return ResumeFilters{Left: "true", Target: "true", Right: "true"}
}

// SynthesizeFilters builds the left/target/right filter fragments for the
// given sort key and the target resume key's sort values. key and values
// must have equal, non-zero length.
//
// Single-column queries use the direct inequality form; multi-column
// queries build the disjunction over every prefix of the sort key, since
// the naive per-column conjunction silently drops rows where an earlier
// column is strictly greater but a later column is smaller.
func SynthesizeFilters(key SortKey, values []Value) (ResumeFilters, error) {
	if len(key) == 0 || len(values) == 0 {
		return ResumeFilters{}, newInvariant(nil, "empty sort key")
	}
	if len(key) != len(values) {
		return ResumeFilters{}, newInvariant(ErrSortKeyArityMismatch,
			fmt.Sprintf("sort key arity %d, values %d", len(key), len(values)))
	}

	if len(key) == 1 {
		return singleColumnFilters(key[0], values[0]), nil
	}
	return ResumeFilters{
		Left:   multiColumnFilter(key, values, false),
		Target: "true",
		Right:  multiColumnFilter(key, values, true),
	}, nil
}

func singleColumnFilters(item OrderByItem, v Value) ResumeFilters {
	lit := SQLLiteral(v)
	if item.Direction == Desc {
		return ResumeFilters{
			Left:   fmt.Sprintf("%s < %s", item.Expression, lit),
			Target: "true",
			Right:  fmt.Sprintf("%s <= %s", item.Expression, lit),
		}
	}
	return ResumeFilters{
		Left:   fmt.Sprintf("%s > %s", item.Expression, lit),
		Target: "true",
		Right:  fmt.Sprintf("%s >= %s", item.Expression, lit),
	}
}

// multiColumnFilter builds the full DNF filter: the disjunction, over
// every prefix length p of the sort key, of "equal on columns 1..p-1 AND
// strictly-ordered (or, for p==len(key) and inclusive, non-strictly
// ordered) on column p".
func multiColumnFilter(key SortKey, values []Value, inclusive bool) string {
	clauses := make([]string, len(key))
	for p := 0; p < len(key); p++ {
		clauses[p] = prefixClause(key, values, p, inclusive && p == len(key)-1)
	}
	return strings.Join(clauses, " OR ")
}

// prefixClause builds one disjunct: equality on columns [0, p) conjoined
// with a comparison on column p. inclusive is true only for the final,
// full-length prefix of the right-side (inclusive) filter.
func prefixClause(key SortKey, values []Value, p int, inclusive bool) string {
	terms := make([]string, 0, p+1)
	for i := 0; i < p; i++ {
		terms = append(terms, fmt.Sprintf("%s = %s", key[i].Expression, SQLLiteral(values[i])))
	}
	terms = append(terms, fmt.Sprintf("%s %s %s", key[p].Expression, comparator(key[p].Direction, inclusive), SQLLiteral(values[p])))
	if len(terms) == 1 {
		return terms[0]
	}
	return "(" + strings.Join(terms, " AND ") + ")"
}

func comparator(dir SortDirection, inclusive bool) string {
	switch {
	case dir == Desc && inclusive:
		return "<="
	case dir == Desc:
		return "<"
	case inclusive:
		return ">="
	default:
		return ">"
	}
}
