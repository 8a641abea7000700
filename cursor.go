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
	"context"
	"errors"
	"fmt"
)

// CursorState is the lifecycle of a partitionCursor.
type CursorState int

const (
	StateUninitialized CursorState = iota
	StateBuffering
	StateReady
	StateExhausted
	StateFaulted
	StateSplit
)

// partitionCursor is a resumable, server-backed enumerator over one live
// range's locally-sorted result stream. It owns exactly one paginator
// (the container, scoped to its range) and buffers one server page at a
// time.
type partitionCursor struct {
	rng       Range
	query     QuerySpec
	container DocumentContainer

	state CursorState
	buf   []OrderByResult
	pos   int

	serverToken string
	execInfo    *ExecutionInfo
	fault       error

	// noMorePages records that the most recently fetched page reported an
	// empty NextToken, i.e. the server has nothing further to offer for
	// this range even though serverToken itself may legitimately be "" as
	// an address (the first page is always fetched with serverToken="").
	noMorePages bool

	// pending is the resume key this cursor was constructed or
	// reconstructed with, consumed by the resume filter (resume.go)
	// before the cursor joins the merge. Nil for a cursor that never had
	// resume state (fresh query, or a post-split child not named in the
	// token).
	pending *ResumeKey

	lastEmitted *OrderByResult
	tieCount    uint32
}

func newCursor(rng Range, query QuerySpec, container DocumentContainer, resume *ResumeKey) *partitionCursor {
	c := &partitionCursor{rng: rng, query: query, container: container, state: StateUninitialized, pending: resume}
	if resume != nil {
		c.tieCount = resume.SkipCount
		c.serverToken = resume.ServerToken
	}
	return c
}

// TryAdvance ensures the cursor has a buffered head, fetching pages as
// needed. Returns (true, nil) with a head available via Head(), (false,
// nil) when the range is exhausted, or (false, err) on fault — err may be
// a *Gone signaling a split, recognized via errors.As by the caller.
func (c *partitionCursor) TryAdvance(ctx context.Context, pageSize int) (bool, error) {
	for {
		if c.pos < len(c.buf) {
			c.state = StateReady
			return true, nil
		}
		switch c.state {
		case StateExhausted:
			return false, nil
		case StateFaulted:
			return false, c.fault
		}
		if c.noMorePages {
			c.state = StateExhausted
			return false, nil
		}

		c.state = StateBuffering
		page, err := c.container.FetchPage(ctx, c.rng, c.query, c.serverToken, pageSize)
		if err != nil {
			var gone *Gone
			if errors.As(err, &gone) {
				c.state = StateSplit
				return false, err
			}
			c.state = StateFaulted
			c.fault = fmt.Errorf("fetching page for range %s: %w", c.rng.ID, err)
			return false, c.fault
		}

		c.buf = page.Results
		c.pos = 0
		c.serverToken = page.NextToken
		c.execInfo = page.ExecutionInfo
		c.noMorePages = page.NextToken == ""

		if len(c.buf) == 0 {
			if c.noMorePages {
				c.state = StateExhausted
				return false, nil
			}
			continue
		}
	}
}

// Head returns the next result without consuming it. Must only be called
// after TryAdvance returns (true, nil).
func (c *partitionCursor) Head() OrderByResult { return c.buf[c.pos] }

// discard drops the head without recording it as an emission, used by the
// resume filter to throw away already-seen documents.
func (c *partitionCursor) discard() { c.pos++ }

// pop consumes the head as a genuine emission: records it for tie
// tracking and as the basis of the next CurrentResumeKey.
func (c *partitionCursor) pop(key SortKey, reverseRid bool) OrderByResult {
	r := c.buf[c.pos]
	c.pos++
	c.recordEmission(key, r, reverseRid)
	return r
}

// recordEmission maintains tieCount: incremented when r ties the
// previous emission on both sort values and RID (a self-join repeat),
// reset to zero otherwise.
func (c *partitionCursor) recordEmission(key SortKey, r OrderByResult, reverseRid bool) {
	if c.lastEmitted != nil &&
		CompareSortKey(key, c.lastEmitted.SortValues, r.SortValues) == 0 &&
		c.lastEmitted.RID == r.RID {
		c.tieCount++
	} else {
		c.tieCount = 0
	}
	last := r
	c.lastEmitted = &last
	c.pending = nil
}

// CurrentResumeKey reports the resume key this cursor would contribute to
// a continuation token emitted right now.
func (c *partitionCursor) CurrentResumeKey() ResumeKey {
	if c.lastEmitted != nil {
		return ResumeKey{
			SortValues:  c.lastEmitted.SortValues,
			RID:         c.lastEmitted.RID,
			SkipCount:   c.tieCount,
			ServerToken: c.serverToken,
			Range:       c.rng,
		}
	}
	if c.pending != nil {
		rk := *c.pending
		rk.Range = c.rng
		return rk
	}
	return ResumeKey{Range: c.rng, ServerToken: c.serverToken}
}

// ReverseRid reports the RID tie-break direction hinted by the most
// recently fetched page.
func (c *partitionCursor) ReverseRid() bool { return c.execInfo.reverseRid() }
