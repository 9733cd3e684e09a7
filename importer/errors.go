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

package importer

import "errors"

var (
	// ErrTabImporterRequired is returned when a tab importer is not provided.
	ErrTabImporterRequired = errors.New("tab importer required")

	// ErrEnricherRequired is returned when an enricher is not provided.
	ErrEnricherRequired = errors.New("enricher required")

	// ErrJobNotFound is returned when a job id is unknown or already purged.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobFinished is returned when cancelling a job in a terminal phase.
	ErrJobFinished = errors.New("job already finished")

	// ErrRetriesExhausted is returned when a sub-batch import keeps failing
	// past the retry budget.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrQueueClosed is returned when submitting to a released queue.
	ErrQueueClosed = errors.New("import queue closed")

	// ErrEmptyJob is returned when a submission contains no tabs.
	ErrEmptyJob = errors.New("job contains no tabs")
)
