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

// QuerySpec is the rewritten query text plus bind parameters sent to each
// partition. Text must contain FilterPlaceholder exactly once per ORDER BY
// conjunct position; SynthesizeFilters' output is substituted there before
// the query reaches a partition.
type QuerySpec struct {
	Text       string
	Parameters map[string]any
}

// ExecutionInfo carries the server's hint about which direction RID ties
// are broken in, used by the resume filter (§4.F). Exactly one of the two
// fields is meaningful per the open question on ReverseRidEnabled vs.
// ReverseIndexScan: callers branch on which field is present on the page,
// not on its value.
type ExecutionInfo struct {
	ReverseRidEnabled    bool
	HasReverseRidEnabled bool
	ReverseIndexScan     bool
	HasReverseIndexScan  bool
}

// reverseRid reports whether RID ties should compare in descending order,
// resolving ReverseRidEnabled vs. ReverseIndexScan by presence: an
// execution_info with neither field present means a server old enough to
// predate both hints, and RID ties compare ascending.
func (e *ExecutionInfo) reverseRid() bool {
	if e == nil {
		return false
	}
	if e.HasReverseIndexScan {
		return e.ReverseIndexScan
	}
	if e.HasReverseRidEnabled {
		return e.ReverseRidEnabled
	}
	return false
}

// Page is one server response: a batch of locally-sorted results, an
// opaque continuation for the next page on this same partition (empty
// when the partition is exhausted), and an optional execution hint.
type Page struct {
	Results       []OrderByResult
	NextToken     string
	ExecutionInfo *ExecutionInfo
}

// Gone is returned by DocumentContainer.FetchPage when the partition has
// split: the server's HTTP 410 / partition-key-range-gone response.
type Gone struct {
	Range Range
}

func (g *Gone) Error() string { return "partition range gone: " + g.Range.ID }

// DocumentContainer is the transport and query-execution collaborator
// this package drives but does not implement: one HTTP/gRPC round trip
// per FetchPage call, and the partition-topology lookup backing
// ChildRanges. See httpcontainer for a concrete implementation.
type DocumentContainer interface {
	// FetchPage issues one page request against r using the given query
	// and (possibly empty) continuation token from a prior page on this
	// same range. Returns a *Gone error (see errors.As) if the range has
	// split; the caller must then call ChildRanges and retry against the
	// children.
	FetchPage(ctx context.Context, r Range, query QuerySpec, serverToken string, pageSize int) (*Page, error)

	// ChildRanges returns the contiguous child ranges that replaced r
	// after a split. Called only in response to a *Gone error.
	ChildRanges(ctx context.Context, r Range) ([]Range, error)
}
