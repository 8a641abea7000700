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

// Package httpcontainer is the default, HTTP-backed implementation of
// xpartition.DocumentContainer: one REST round trip per page fetch,
// against a server speaking the same partition-key-range-scoped query
// protocol the merge engine was designed around.
package httpcontainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/decoder"
	"github.com/google/uuid"

	"github.com/antflydb/xpartition-go"
)

// Header names for the partition-scoped query protocol this container
// speaks to the server.
const (
	headerPartitionKeyRangeID = "x-ms-documentdb-partitionkeyrangeid"
	headerContinuation        = "x-ms-continuation"
	headerMaxItemCount        = "x-ms-max-item-count"
	headerSubStatus           = "x-ms-substatus"
	headerActivityID          = "x-ms-activity-id"

	// subStatusPartitionKeyRangeGone is the sub-status the server attaches
	// to an HTTP 410 response when the named range has split.
	subStatusPartitionKeyRangeGone = "1002"
)

// Container queries a single collection's query endpoint over HTTP,
// scoping each request to one partition-key range via header.
type Container struct {
	httpClient *http.Client
	queryURL   string
	rangesURL  string
}

// New builds a Container against baseURL, using httpClient for requests.
// queryURL is baseURL + "/query"; rangesURL is baseURL + "/pkranges".
func New(baseURL string, httpClient *http.Client) (*Container, error) {
	queryURL, err := url.JoinPath(baseURL, "query")
	if err != nil {
		return nil, fmt.Errorf("building query url: %w", err)
	}
	rangesURL, err := url.JoinPath(baseURL, "pkranges")
	if err != nil {
		return nil, fmt.Errorf("building pkranges url: %w", err)
	}
	return &Container{httpClient: httpClient, queryURL: queryURL, rangesURL: rangesURL}, nil
}

type queryRequest struct {
	Query      string         `json:"query"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type executionInfoWire struct {
	ReverseRidEnabled *bool `json:"reverseRidEnabled,omitempty"`
	ReverseIndexScan  *bool `json:"reverseIndexScan,omitempty"`
}

type orderByItemWire struct {
	Item any `json:"item"`
}

type documentWire struct {
	RID          string            `json:"_rid"`
	Payload      json.RawMessage   `json:"payload"`
	OrderByItems []orderByItemWire `json:"orderByItems"`
}

type pageWire struct {
	Documents     []documentWire     `json:"documents"`
	Continuation  string             `json:"continuation,omitempty"`
	ExecutionInfo *executionInfoWire `json:"queryExecutionInfo,omitempty"`
}

// FetchPage implements xpartition.DocumentContainer.
func (c *Container) FetchPage(ctx context.Context, r xpartition.Range, query xpartition.QuerySpec, serverToken string, pageSize int) (*xpartition.Page, error) {
	body, err := sonic.Marshal(queryRequest{Query: query.Text, Parameters: query.Parameters})
	if err != nil {
		return nil, fmt.Errorf("marshalling query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerPartitionKeyRangeID, r.ID)
	req.Header.Set(headerMaxItemCount, strconv.Itoa(pageSize))
	req.Header.Set(headerActivityID, uuid.NewString())
	if serverToken != "" {
		req.Header.Set(headerContinuation, serverToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone && resp.Header.Get(headerSubStatus) == subStatusPartitionKeyRangeGone {
		io.Copy(io.Discard, resp.Body)
		return nil, &xpartition.Gone{Range: r}
	}
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("query request to range %s returned status %d: %s", r.ID, resp.StatusCode, respBody)
	}

	var wire pageWire
	if err := decoder.NewStreamDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("parsing query response for range %s: %w", r.ID, err)
	}

	results := make([]xpartition.OrderByResult, len(wire.Documents))
	for i, d := range wire.Documents {
		values := make([]xpartition.Value, len(d.OrderByItems))
		for j, item := range d.OrderByItems {
			values[j] = jsonToValue(item.Item)
		}
		results[i] = xpartition.OrderByResult{
			Payload:    d.Payload,
			SortValues: values,
			RID:        xpartition.RID(d.RID),
		}
	}

	page := &xpartition.Page{Results: results, NextToken: wire.Continuation}
	if wire.ExecutionInfo != nil {
		info := &xpartition.ExecutionInfo{}
		if wire.ExecutionInfo.ReverseRidEnabled != nil {
			info.HasReverseRidEnabled = true
			info.ReverseRidEnabled = *wire.ExecutionInfo.ReverseRidEnabled
		}
		if wire.ExecutionInfo.ReverseIndexScan != nil {
			info.HasReverseIndexScan = true
			info.ReverseIndexScan = *wire.ExecutionInfo.ReverseIndexScan
		}
		page.ExecutionInfo = info
	}
	return page, nil
}

type rangeWire struct {
	ID  string `json:"id"`
	Min string `json:"minInclusive"`
	Max string `json:"maxExclusive"`
}

// ChildRanges implements xpartition.DocumentContainer.
func (c *Container) ChildRanges(ctx context.Context, r xpartition.Range) ([]xpartition.Range, error) {
	childURL, err := url.JoinPath(c.rangesURL, r.ID, "children")
	if err != nil {
		return nil, fmt.Errorf("building child ranges url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, childURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(headerActivityID, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching child ranges for %s: %w", r.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("child ranges request for %s returned status %d: %s", r.ID, resp.StatusCode, respBody)
	}

	var wire []rangeWire
	if err := decoder.NewStreamDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("parsing child ranges response for %s: %w", r.ID, err)
	}

	children := make([]xpartition.Range, len(wire))
	for i, w := range wire {
		children[i] = xpartition.Range{ID: w.ID, MinInclusive: w.Min, MaxExclusive: w.Max}
	}
	return children, nil
}

// jsonToValue converts a value produced by sonic's decode-into-any (nil,
// bool, float64, string, []any, map[string]any) into an xpartition.Value.
func jsonToValue(v any) xpartition.Value {
	switch t := v.(type) {
	case nil:
		return xpartition.Null
	case bool:
		return xpartition.BoolValue(t)
	case float64:
		return xpartition.NumberValue(t)
	case string:
		return xpartition.StringValue(t)
	case []any:
		elems := make([]xpartition.Value, len(t))
		for i, e := range t {
			elems[i] = jsonToValue(e)
		}
		return xpartition.ArrayValue(elems)
	case map[string]any:
		fields := make(map[string]xpartition.Value, len(t))
		for k, e := range t {
			fields[k] = jsonToValue(e)
		}
		return xpartition.ObjectValue(fields)
	default:
		return xpartition.Undefined
	}
}
