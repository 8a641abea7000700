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
	"container/heap"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// cursorHeap is a min-heap of primed cursors ordered by §4.G.1: the
// lexicographic sort-key comparison of their heads, tie-broken by the
// owning range's MinInclusive so the left-most partition among
// equivalent tuples is always drained first.
type cursorHeap struct {
	key     SortKey
	cursors []*partitionCursor
}

func (h *cursorHeap) Len() int { return len(h.cursors) }

func (h *cursorHeap) Less(i, j int) bool {
	a, b := h.cursors[i], h.cursors[j]
	if c := CompareSortKey(h.key, a.Head().SortValues, b.Head().SortValues); c != 0 {
		return c < 0
	}
	return a.rng.MinInclusive < b.rng.MinInclusive
}

func (h *cursorHeap) Swap(i, j int) { h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i] }

func (h *cursorHeap) Push(x any) { h.cursors = append(h.cursors, x.(*partitionCursor)) }

func (h *cursorHeap) Pop() any {
	old := h.cursors
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	h.cursors = old[:n-1]
	return c
}

// mergeEngine is the priority-queue k-way merge over a set of partition
// cursors. It is the sole owner of its cursor set; advancing it must not
// be called re-entrantly.
type mergeEngine struct {
	container DocumentContainer
	query     QuerySpec
	key       SortKey
	pageSize  int

	heap   *cursorHeap
	target *partitionCursor
	log    *zap.Logger
}

// newMergeEngine builds one cursor per range in active, classifies it
// against token (if non-nil) via MapPartitions, synthesizes the
// corresponding resume filter, primes every cursor (running the resume
// filter on any with a pending resume key), and arranges the primed
// cursors into the priority queue. A nil token means a fresh query: every
// cursor starts with the unconditional "true" filter and no resume key.
func newMergeEngine(ctx context.Context, container DocumentContainer, query QuerySpec, key SortKey, active []Range, token MergeToken, pageSize int, log *zap.Logger) (*mergeEngine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m := &mergeEngine{
		container: container,
		query:     query,
		key:       key,
		pageSize:  pageSize,
		heap:      &cursorHeap{key: key},
		log:       log,
	}

	sorted := sortRangesByMin(active)

	if len(token) == 0 {
		for _, r := range sorted {
			cur := newCursor(r, substituteFilter(query, "true"), container, nil)
			if err := m.primeAndInsert(ctx, cur, nil); err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	mapping, err := MapPartitions(sorted, token)
	if err != nil {
		return nil, err
	}
	filters, err := SynthesizeFilters(key, token.Target().SortValues)
	if err != nil {
		return nil, err
	}

	for _, r := range sorted {
		group, rk, _ := mapping.Group(r)
		var filter string
		switch group {
		case GroupLeftOfTarget:
			filter = filters.Left
		case GroupTarget:
			filter = filters.Target
		default:
			filter = filters.Right
		}
		cur := newCursor(r, substituteFilter(query, filter), container, rk)
		if err := m.primeAndInsert(ctx, cur, rk); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// substituteFilter replaces every occurrence of FilterPlaceholder in the
// query text with filter.
func substituteFilter(q QuerySpec, filter string) QuerySpec {
	return QuerySpec{Text: strings.ReplaceAll(q.Text, FilterPlaceholder, filter), Parameters: q.Parameters}
}

// primeAndInsert runs the resume filter (if rk is non-nil) and then
// TryAdvance on cur, pushing it onto the heap if it comes up with a head.
// A *Gone during priming is handled identically to one during merge.
func (m *mergeEngine) primeAndInsert(ctx context.Context, cur *partitionCursor, rk *ResumeKey) error {
	if rk != nil {
		if err := runResumeFilter(ctx, cur, m.key, m.pageSize); err != nil {
			if isSplit(err) {
				return m.handleSplit(ctx, cur, err)
			}
			return err
		}
	}
	ok, err := cur.TryAdvance(ctx, m.pageSize)
	if err != nil {
		if isSplit(err) {
			return m.handleSplit(ctx, cur, err)
		}
		return err
	}
	if ok {
		heap.Push(m.heap, cur)
	}
	return nil
}

func isSplit(err error) bool {
	var gone *Gone
	return errors.As(err, &gone)
}

// handleSplit implements §4.G's split protocol: fetch the gone range's
// children, construct one cursor per child carrying the same resume key
// the parent last knew, and prime and insert each in turn.
func (m *mergeEngine) handleSplit(ctx context.Context, parent *partitionCursor, cause error) error {
	m.log.Info("partition range gone, fetching children", zap.String("range", parent.rng.ID))

	children, err := m.container.ChildRanges(ctx, parent.rng)
	if err != nil {
		return fmt.Errorf("fetching child ranges for %s: %w", parent.rng.ID, err)
	}
	m.log.Info("re-priming cursors for split range", zap.String("parent", parent.rng.ID), zap.Int("children", len(children)))

	// Children inherit the parent's query text verbatim: the filter it
	// already embeds is still correct, since every child resumes from the
	// same resume key the parent last knew. A parent that never had
	// resume state of its own (fresh query, or itself a post-split child
	// with no token entry) gives its children none either.
	hadResume := parent.lastEmitted != nil || parent.pending != nil
	for _, child := range children {
		var rk *ResumeKey
		if hadResume {
			k := parent.CurrentResumeKey()
			k.Range = child
			rk = &k
		}
		childCursor := newCursor(child, parent.query, m.container, rk)
		if err := m.primeAndInsert(ctx, childCursor, rk); err != nil {
			return err
		}
	}
	return nil
}

// Advance pops the minimum cursor, emits its head, advances it, and
// returns the emitted result along with the merge token describing every
// currently-live cursor as of this emission. ok is false once the stream
// is exhausted; the caller must stop calling Advance after that.
func (m *mergeEngine) Advance(ctx context.Context) (OrderByResult, MergeToken, bool, error) {
	for {
		if m.heap.Len() == 0 {
			return OrderByResult{}, nil, false, nil
		}
		cur := heap.Pop(m.heap).(*partitionCursor)
		result := cur.pop(m.key, cur.ReverseRid())
		m.target = cur

		ok, err := cur.TryAdvance(ctx, m.pageSize)
		if err != nil {
			if isSplit(err) {
				if serr := m.handleSplit(ctx, cur, err); serr != nil {
					return OrderByResult{}, nil, false, serr
				}
			} else {
				return OrderByResult{}, nil, false, err
			}
		} else if ok {
			heap.Push(m.heap, cur)
		}

		token := m.buildToken()
		return result, token, true, nil
	}
}

// buildToken assembles the merge token from every live cursor, placing
// the most recently drained cursor's resume key first per §3's "target
// partition" rule.
func (m *mergeEngine) buildToken() MergeToken {
	token := make(MergeToken, 0, m.heap.Len()+1)
	if m.target != nil {
		token = append(token, m.target.CurrentResumeKey())
	}
	for _, cur := range m.heap.cursors {
		if cur == m.target {
			continue
		}
		token = append(token, cur.CurrentResumeKey())
	}
	return token
}

// Done reports whether every cursor has been exhausted and no results
// remain buffered.
func (m *mergeEngine) Done() bool { return m.heap.Len() == 0 }
