package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateTabRecord(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Hour)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		record  *TabRecord
		wantErr error
	}{
		{
			name: "valid record",
			record: &TabRecord{
				Id:         1,
				UserID:     "user-1",
				URL:        "https://example.com",
				Title:      "Example",
				InsertedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name: "valid record with empty vector",
			record: &TabRecord{
				Id:         1,
				UserID:     "user-1",
				URL:        "https://example.com",
				InsertedAt: validTime,
				Vector:     nil,
			},
			wantErr: nil,
		},
		{
			name: "valid record with empty summary",
			record: &TabRecord{
				Id:         1,
				UserID:     "user-1",
				URL:        "https://example.com",
				InsertedAt: validTime,
				Summary:    "",
			},
			wantErr: nil,
		},
		{
			name: "valid record with ID 0",
			record: &TabRecord{
				Id:         0,
				UserID:     "user-1",
				URL:        "https://example.com",
				InsertedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidTabRecord,
		},
		{
			name: "empty url",
			record: &TabRecord{
				Id:         1,
				UserID:     "user-1",
				URL:        "",
				InsertedAt: validTime,
			},
			wantErr: ErrEmptyURL,
		},
		{
			name: "empty user id",
			record: &TabRecord{
				Id:         1,
				UserID:     "",
				URL:        "https://example.com",
				InsertedAt: validTime,
			},
			wantErr: ErrEmptyUserID,
		},
		{
			name: "future inserted-at",
			record: &TabRecord{
				Id:         1,
				UserID:     "user-1",
				URL:        "https://example.com",
				InsertedAt: futureTime,
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTabRecord(tt.record)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateTabRecord() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateTabRecord() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTabRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNewTab(t *testing.T) {
	tests := []struct {
		name    string
		tab     *NewTab
		wantErr error
	}{
		{
			name: "valid tab",
			tab: &NewTab{
				URL:   "https://example.com",
				Title: "Example",
			},
			wantErr: nil,
		},
		{
			name: "valid tab without title",
			tab: &NewTab{
				URL: "https://example.com",
			},
			wantErr: nil,
		},
		{
			name:    "nil tab",
			tab:     nil,
			wantErr: ErrInvalidNewTab,
		},
		{
			name: "empty url",
			tab: &NewTab{
				Title: "Example",
			},
			wantErr: ErrEmptyURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNewTab(tt.tab)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateNewTab() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateNewTab() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateNewTab() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsValidTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{
			name: "past timestamp",
			ts:   time.Now().Add(-1 * time.Hour),
			want: true,
		},
		{
			name: "current time (approximately)",
			ts:   time.Now(),
			want: true,
		},
		{
			name: "future timestamp",
			ts:   time.Now().Add(1 * time.Hour),
			want: false,
		},
		{
			name: "zero time",
			ts:   time.Time{},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidTimestamp(tt.ts)
			if got != tt.want {
				t.Errorf("IsValidTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}
