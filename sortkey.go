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

import "github.com/antflydb/xpartition-go/internal/wire"

// OrderByItem is one column of a query's ORDER BY clause.
type OrderByItem struct {
	Expression string
	Direction  SortDirection
}

// SortKey is the non-empty, ordered list of ORDER BY columns for a query.
type SortKey []OrderByItem

// Arity returns the number of columns in the sort key.
func (k SortKey) Arity() int { return len(k) }

// OrderByResult is one document the server evaluated against the sort key:
// its raw payload, the tuple of sort-key values, and its RID.
type OrderByResult struct {
	Payload    wire.RawMessage
	SortValues []Value
	RID        RID
}

// CompareSortKey compares two results' sort-value tuples under key,
// direction-adjusting each column. It does not break ties; callers that
// need a total order append the partition tie-break (see cursorHeap.Less).
func CompareSortKey(key SortKey, a, b []Value) int {
	for i, item := range key {
		if c := DirectedCompare(item.Direction, a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}
