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


package core

import (
	"fmt"
	"time"
)

// ValidateTabRecord validates a TabRecord according to domain rules.
//
// Validation rules:
//   - URL must not be empty
//   - UserID must not be empty
//   - InsertedAt must not be in the future
//
// NOT validated (populated by enrichment):
//   - Vector (can be empty until the embedding step runs)
//   - Summary (can be empty until the summarization step runs)
//   - ID (0 is valid from database sequences)
func ValidateTabRecord(record *TabRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidTabRecord)
	}

	if record.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTabRecord, ErrEmptyURL)
	}

	if record.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTabRecord, ErrEmptyUserID)
	}

	if !IsValidTimestamp(record.InsertedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidTabRecord, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateNewTab validates import input according to domain rules.
//
// Validation rules:
//   - URL must not be empty
//
// Title and Metadata are optional.
func ValidateNewTab(tab *NewTab) error {
	if tab == nil {
		return fmt.Errorf("%w: tab is nil", ErrInvalidNewTab)
	}

	if tab.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNewTab, ErrEmptyURL)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
