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


// Package gateway guards outbound calls to paid, rate-capped external
// services (embeddings, generative text, content extraction, screenshots).
//
// Each service is configured with a requests-per-minute budget enforced over
// a sliding 60-second window: no trailing 60-second interval ever contains
// more dispatches than the budget. Pending requests form a priority queue
// drained by one goroutine per service: higher priority dispatches first,
// and equal priorities run in arrival order.
//
// When a service is at its limit the drain loop waits until the oldest
// dispatch leaves the window (plus a safety margin) before continuing. A
// small fixed delay after each dispatch smooths bursts. Operation failures
// are reported to the requesting caller only; a failing operation never
// stalls the queue or consumes extra window capacity.
//
// Usage:
//
//	gw := gateway.New(gateway.DefaultConfig())
//	defer gw.Close()
//
//	err := gw.Do(ctx, gateway.ServiceEmbeddings, 10, func(ctx context.Context) error {
//	    return callEmbeddingAPI(ctx)
//	})
//
// The Clock abstraction lets tests drive virtual time through the window
// instead of sleeping.
package gateway
