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


// Package importer runs bulk tab imports as tracked jobs.
//
// A job moves queued → importing → processing → completed or failed. The
// import phase persists records in sub-batches, retrying batch-level
// failures with capped backoff; exhausting the retries fails the remainder
// of the job but already-imported records keep their durable ids and
// proceed to enrichment. The processing phase enriches imported records in
// smaller sub-batches; its failures are counted, never fatal mid-phase. A
// job completes only with zero failed records, and failure is reported, not
// rolled back.
//
// Progress snapshots (counts, errors, estimated time remaining) go to an
// optional per-job observer after every sub-batch and phase transition; an
// observer that panics is logged and ignored. Terminal jobs are kept
// queryable for a retention window, then purged by a lazy sweep on submit.
package importer
