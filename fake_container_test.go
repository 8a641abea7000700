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
	"strconv"
)

// fakeStep is one scripted response to a FetchPage call for a range, at a
// fixed position in that range's pagination chain.
type fakeStep struct {
	page *Page
	gone bool
}

// fakeContainer is an in-memory DocumentContainer driven by a fixed,
// server_token-addressed pagination chain per range, used to exercise
// the cursor, resume and merge logic without a network. Unlike a plain
// call-counter stub, re-fetching with the same server_token replays the
// same page — the behavior a resumed Stage actually depends on.
type fakeContainer struct {
	steps    map[string][]fakeStep
	children map[string][]Range
	calls    map[string]int
}

func newFakeContainer() *fakeContainer {
	return &fakeContainer{
		steps:    make(map[string][]fakeStep),
		children: make(map[string][]Range),
		calls:    make(map[string]int),
	}
}

func (f *fakeContainer) addPage(rangeID string, page *Page) {
	f.steps[rangeID] = append(f.steps[rangeID], fakeStep{page: page})
}

func (f *fakeContainer) addGone(rangeID string) {
	f.steps[rangeID] = append(f.steps[rangeID], fakeStep{gone: true})
}

func (f *fakeContainer) setChildren(rangeID string, children ...Range) {
	f.children[rangeID] = children
}

func (f *fakeContainer) FetchPage(ctx context.Context, r Range, query QuerySpec, serverToken string, pageSize int) (*Page, error) {
	f.calls[r.ID]++

	idx := 0
	if serverToken != "" {
		idx, _ = strconv.Atoi(serverToken)
	}
	steps := f.steps[r.ID]
	if idx >= len(steps) {
		return &Page{}, nil
	}
	step := steps[idx]
	if step.gone {
		return nil, &Gone{Range: r}
	}

	next := ""
	if idx+1 < len(steps) {
		next = strconv.Itoa(idx + 1)
	}
	return &Page{Results: step.page.Results, NextToken: next, ExecutionInfo: step.page.ExecutionInfo}, nil
}

func (f *fakeContainer) ChildRanges(ctx context.Context, r Range) ([]Range, error) {
	return f.children[r.ID], nil
}

func docs(rid string, n float64) OrderByResult {
	return OrderByResult{SortValues: []Value{NumberValue(n)}, RID: RID(rid)}
}
