// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import "errors"

var (
	// ErrTabRepositoryRequired is returned when a tab repository is not provided.
	ErrTabRepositoryRequired = errors.New("tab repository required")

	// ErrLexicalIndexRequired is returned when a lexical index is not provided.
	ErrLexicalIndexRequired = errors.New("lexical index required")

	// ErrEmbeddingClientRequired is returned when an embedding client is not provided.
	ErrEmbeddingClientRequired = errors.New("embedding client required")

	// ErrAllSearchesFailed is returned when every search strategy, including
	// the substring fallback, failed.
	ErrAllSearchesFailed = errors.New("all search strategies failed")
)
