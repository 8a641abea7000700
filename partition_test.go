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
	"errors"
	"testing"
)

func TestMapPartitionsBasic(t *testing.T) {
	rA := Range{ID: "A", MinInclusive: "00", MaxExclusive: "40"}
	rB := Range{ID: "B", MinInclusive: "40", MaxExclusive: "80"}
	rC := Range{ID: "C", MinInclusive: "80", MaxExclusive: "C0"}
	active := []Range{rA, rB, rC}

	token := MergeToken{
		{RID: "d/c/1", Range: rB}, // target
		{RID: "d/c/2", Range: rA},
		{RID: "d/c/3", Range: rC},
	}

	mapping, err := MapPartitions(active, token)
	if err != nil {
		t.Fatalf("MapPartitions: %v", err)
	}
	if _, ok := mapping.Target[rB]; !ok {
		t.Errorf("expected B classified as target")
	}
	if _, ok := mapping.LeftOfTarget[rA]; !ok {
		t.Errorf("expected A classified as left-of-target")
	}
	if _, ok := mapping.RightOfTarget[rC]; !ok {
		t.Errorf("expected C classified as right-of-target")
	}
}

func TestMapPartitionsPostSplitChildHasNilResumeKey(t *testing.T) {
	rA := Range{ID: "A", MinInclusive: "00", MaxExclusive: "40"}
	rB1 := Range{ID: "B1", MinInclusive: "40", MaxExclusive: "60"}
	rB2 := Range{ID: "B2", MinInclusive: "60", MaxExclusive: "80"}
	active := []Range{rA, rB1, rB2}

	token := MergeToken{
		{RID: "d/c/1", Range: rA}, // target
	}

	mapping, err := MapPartitions(active, token)
	if err != nil {
		t.Fatalf("MapPartitions: %v", err)
	}
	_, rk, ok := mapping.Group(rB1)
	if !ok {
		t.Fatalf("expected B1 to be classified")
	}
	if rk != nil {
		t.Errorf("expected nil resume key for post-split child, got %+v", rk)
	}
}

func TestMapPartitionsTargetNotFound(t *testing.T) {
	rA := Range{ID: "A", MinInclusive: "00", MaxExclusive: "40"}
	active := []Range{rA}
	token := MergeToken{
		{RID: "d/c/1", Range: Range{ID: "gone", MinInclusive: "80", MaxExclusive: "C0"}},
	}

	_, err := MapPartitions(active, token)
	if err == nil {
		t.Fatal("expected error")
	}
	var xerr *Error
	if !errors.As(err, &xerr) || xerr.Kind != MalformedContinuation {
		t.Fatalf("expected MalformedContinuation, got %v", err)
	}
}

func TestMapPartitionsTargetSubsumedByMergedRange(t *testing.T) {
	merged := Range{ID: "AB", MinInclusive: "00", MaxExclusive: "80"}
	active := []Range{merged}
	token := MergeToken{
		{RID: "d/c/1", Range: Range{ID: "A", MinInclusive: "00", MaxExclusive: "40"}},
	}

	mapping, err := MapPartitions(active, token)
	if err != nil {
		t.Fatalf("MapPartitions: %v", err)
	}
	if _, ok := mapping.Target[merged]; !ok {
		t.Errorf("expected merged range to absorb the target resume key")
	}
}
