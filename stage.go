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

	"go.uber.org/zap"

	"github.com/antflydb/xpartition-go/internal/logging"
)

const (
	// DefaultPageSize is the batch size Stage.Advance targets when Config
	// does not specify one.
	DefaultPageSize = 100
	// MaxPageSize bounds Config.PageSize; requests above it are clamped.
	MaxPageSize = 1000
)

// Config controls Stage construction: batch sizing and logging. The zero
// value is valid and resolves to DefaultPageSize with the logger
// logging.NewLogger(nil) builds (terminal style, info level).
type Config struct {
	PageSize int
	Logging  *logging.Config
	Logger   *zap.Logger
}

func (c Config) pageSize() int {
	if c.PageSize <= 0 {
		return DefaultPageSize
	}
	if c.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return c.PageSize
}

func (c Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.NewLogger(c.Logging)
}

// StagePage is a bounded batch of results emitted by Stage.Advance, plus
// the continuation token as of the batch's last result. Token is nil
// exactly when the stage has reached end of stream.
type StagePage struct {
	Results []OrderByResult
	Token   MergeToken
}

// Stage is the external pull-style interface to the cross-partition
// ORDER BY merge: construct once per query, then call Advance repeatedly
// until it reports end of stream.
type Stage struct {
	engine   *mergeEngine
	pageSize int
	done     bool
}

// NewStage constructs a Stage for the given query over the given sort
// key and active ranges. resumeToken is the raw JSON continuation token
// from a prior Stage's last Page (nil or empty for a fresh query); it is
// parsed and validated against key's arity before any network traffic is
// issued.
func NewStage(ctx context.Context, container DocumentContainer, query QuerySpec, key SortKey, active []Range, resumeToken []byte, cfg Config) (*Stage, error) {
	var token MergeToken
	if len(resumeToken) > 0 {
		parsed, err := ParseMergeToken(resumeToken, key.Arity())
		if err != nil {
			return nil, err
		}
		token = parsed
	}

	pageSize := cfg.pageSize()
	engine, err := newMergeEngine(ctx, container, query, key, active, token, pageSize, cfg.logger())
	if err != nil {
		return nil, err
	}
	return &Stage{engine: engine, pageSize: pageSize}, nil
}

// Advance drains up to pageSize results from the merge and returns them
// as a StagePage. ok is false once the stage has reached end of stream;
// the caller must stop calling Advance after that. Token is nil only on
// the batch that exhausts the stream.
func (s *Stage) Advance(ctx context.Context) (StagePage, bool, error) {
	if s.done {
		return StagePage{}, false, nil
	}

	page := StagePage{Results: make([]OrderByResult, 0, s.pageSize)}
	for len(page.Results) < s.pageSize {
		result, token, ok, err := s.engine.Advance(ctx)
		if err != nil {
			return StagePage{}, false, err
		}
		if !ok {
			s.done = true
			break
		}
		page.Results = append(page.Results, result)
		page.Token = token
	}

	if s.engine.Done() {
		s.done = true
		page.Token = nil
	}
	if len(page.Results) == 0 {
		return StagePage{}, false, nil
	}
	return page, true, nil
}
