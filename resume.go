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

import "context"

// runResumeFilter drains and discards documents from c's head until it is
// strictly beyond the resume point described by c's pending resume key, or
// the cursor exhausts. Must be run exactly once on a freshly (re)created
// cursor before it joins the merge's priority queue; a no-op if the
// cursor has no pending resume key.
//
// The server pages by byte count, not document count, so a resumed page
// always overlaps the documents already emitted before the continuation
// token was captured; this is what discards that overlap.
func runResumeFilter(ctx context.Context, c *partitionCursor, key SortKey, pageSize int) error {
	rk := c.pending
	if rk == nil {
		return nil
	}

	srid, err := rk.RID.Parse()
	if err != nil {
		return newMalformed(err, string(rk.RID))
	}

	skipRemaining := int64(rk.SkipCount)
	for {
		ok, err := c.TryAdvance(ctx, pageSize)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		d := c.Head()

		cmp := CompareSortKey(key, rk.SortValues, d.SortValues)
		switch {
		case cmp < 0:
			return nil
		case cmp > 0:
			c.discard()
			continue
		}

		drid, err := d.RID.Parse()
		if err != nil {
			return newMalformed(err, string(d.RID))
		}
		if drid.Database != srid.Database || drid.Collection != srid.Collection {
			return newMalformed(ErrRIDCollectionMismatch, string(d.RID))
		}

		ridCmp := drid.CompareDocument(srid)
		if c.ReverseRid() {
			ridCmp = -ridCmp
		}
		switch {
		case ridCmp < 0:
			c.discard()
		case ridCmp == 0:
			if skipRemaining >= 0 {
				skipRemaining--
				c.discard()
				continue
			}
			return nil
		default:
			return nil
		}
	}
}
