package errors

import (
	"testing"
)

func TestValidateStyleName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "lines", false},
		{"valid with dash", "lines-shield", false},
		{"valid with suffix", "lines.xml", false},
		{"valid nested", "regression/issue-42", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"path traversal", "foo/../bar", true},
		{"absolute", "/etc/passwd", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStyleName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStyleName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDir(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "test/visual/styles", false},
		{"absolute", "/tmp/out", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"control char", "out\x07", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDir("output", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDir(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidPath {
				t.Errorf("ValidateDir(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}
