package errors

import (
	"strings"
	"testing"
)

func TestValidateCategoryID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "backend", false},
		{"with spaces", "Team A", false},
		{"unicode", "開発", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"control char", "a\x01b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCategoryID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCategoryID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidCategory) {
				t.Errorf("wrong error code: %v", err)
			}
		})
	}
}

func TestValidateTimelineID(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"releases-2024", false},
		{"", true},
		{"../etc", true},
		{"a/b", true},
		{"$where", true},
		{".hidden", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateTimelineID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTimelineID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBucketID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"month", "month-2024/3", false},
		{"negative year", "year--50", false},
		{"hour", "hour-2024/3/5 14", false},
		{"week", "week-2024,10", false},
		{"empty", "", true},
		{"no separator", "month2024", true},
		{"no key", "month-", true},
		{"no scale", "-2024", true},
		{"control", "day-2024/1/1\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBucketID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidBucket) {
				t.Errorf("wrong error code: %v", err)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "timelines/releases.yaml", false},
		{"valid filename only", "events.toml", false},
		{"valid with dots", "v1.2.3/doc.json", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeDate,
		ErrCodeRange,
		ErrCodeConfig,
		ErrCodeOutOfRange,
		ErrCodeInvalidInput,
		ErrCodeInvalidFormat,
		ErrCodeInvalidPath,
		ErrCodeInvalidCategory,
		ErrCodeInvalidBucket,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
