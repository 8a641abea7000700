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

// Package wire provides a configurable JSON encoding/decoding layer for the
// continuation token. It defaults to encoding/json but can be swapped for a
// faster implementation such as github.com/bytedance/sonic without touching
// any caller. The HTTP document container does not go through this layer;
// it calls sonic directly.
//
// Usage:
//
//	import "github.com/antflydb/xpartition-go/internal/wire"
//
//	data, err := wire.Marshal(v)
//	err = wire.Unmarshal(data, &v)
//
// To use a different JSON library:
//
//	import (
//		"github.com/antflydb/xpartition-go/internal/wire"
//		"github.com/bytedance/sonic"
//		"github.com/bytedance/sonic/decoder"
//	)
//
//	func init() {
//		wire.SetConfig(wire.Config{
//			Marshal:   sonic.Marshal,
//			Unmarshal: sonic.Unmarshal,
//			NewDecoder: func(r io.Reader) wire.Decoder {
//				return decoder.NewStreamDecoder(r)
//			},
//		})
//	}
package wire

import (
	stdjson "encoding/json"
	"io"
)

// Decoder is the interface for streaming JSON decoding.
// Both encoding/json and alternative libraries satisfy this interface.
type Decoder interface {
	Decode(v any) error
}

// Config holds the JSON encoding/decoding functions.
type Config struct {
	Marshal    func(v any) ([]byte, error)
	Unmarshal  func(data []byte, v any) error
	NewDecoder func(r io.Reader) Decoder
}

// DefaultConfig returns the default configuration using encoding/json.
func DefaultConfig() Config {
	return Config{
		Marshal:   stdjson.Marshal,
		Unmarshal: stdjson.Unmarshal,
		NewDecoder: func(r io.Reader) Decoder {
			return stdjson.NewDecoder(r)
		},
	}
}

// config is the package-global codec. Defaults to encoding/json.
var config = DefaultConfig()

// SetConfig sets the global JSON configuration.
// Call this before using any wire functions to use a custom JSON library.
func SetConfig(c Config) {
	config = c
}

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return config.Marshal(v)
}

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return config.Unmarshal(data, v)
}

// NewDecoder returns a new Decoder that reads from r.
func NewDecoder(r io.Reader) Decoder {
	return config.NewDecoder(r)
}

// RawMessage is a raw encoded JSON value, used to carry a result's document
// payload undecoded.
type RawMessage = stdjson.RawMessage
