package timeutil_test

import (
	"testing"
	"time"

	"github.com/rcarmo/go-nativeshell/pkg/core/timeutil"
)

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "30", want: 30 * time.Second},
		{in: "1.5m", want: 90 * time.Second},
		{in: "2h", want: 2 * time.Hour},
		{in: "1d", want: 24 * time.Hour},
		{in: "1m30s", want: 90 * time.Second},
		{in: "250ms", want: 250 * time.Millisecond},
		{in: "0", want: 0},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "-5", wantErr: true},
	}
	for _, tt := range tests {
		got, err := timeutil.ParseTimeout(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimeout(%q) expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeout(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeout(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimeout(t *testing.T) {
	if got := timeutil.FormatTimeout(0); got != "none" {
		t.Errorf("FormatTimeout(0) = %q", got)
	}
	if got := timeutil.FormatTimeout(90 * time.Second); got != "1m30s" {
		t.Errorf("FormatTimeout(90s) = %q", got)
	}
}
