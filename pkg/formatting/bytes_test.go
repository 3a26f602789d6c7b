package formatting_test

import (
	"testing"

	"github.com/JaimeStill/floracare/pkg/formatting"
)

const mb = 1024 * 1024

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"20MB", 20 * mb, false},
		{"1024", 1024, false},
		{"512B", 512, false},
		{"1.5 mb", 3 * mb / 2, false},
		{" 2GB ", 2048 * mb, false},
		{"", 0, true},
		{"MB", 0, true},
		{"-5MB", 0, true},
		{"10QB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBytes(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n         int64
		precision int
		want      string
	}{
		{0, 0, "0 B"},
		{900, 0, "900 B"},
		{1536 * 1024, 1, "1.5 MB"},
		{20 * mb, -1, "20 MB"},
	}

	for _, tt := range tests {
		if got := formatting.FormatBytes(tt.n, tt.precision); got != tt.want {
			t.Errorf("FormatBytes(%d, %d) = %q, want %q", tt.n, tt.precision, got, tt.want)
		}
	}
}
