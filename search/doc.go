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


// Package search implements hybrid retrieval over saved tabs: a semantic
// (vector) sub-search and a lexical (BM25) sub-search run concurrently and
// their ranked lists are fused with reciprocal rank fusion.
//
// The engine degrades rather than fails. One sub-search erroring drops that
// signal; both erroring falls back to a substring scan of the user's
// records. Ultra-short or URL-shaped queries skip the vector side entirely,
// and vector candidates beyond the distance threshold are discarded.
//
// Usage:
//
//	searcher, err := search.NewSearcher(tabs, index, embedClient)
//	if err != nil { ... }
//	hits, err := searcher.Search(ctx, "that crdt paper", userID, 10)
//
// A SearchMonitor can be attached per query to observe each stage.
package search
