package types

import (
	"errors"
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain bytes", input: "1024", want: 1024},
		{name: "zero bytes", input: "0", want: 0},
		{name: "bytes with B suffix", input: "512B", want: 512},
		{name: "bytes with lowercase b", input: "512b", want: 512},
		{name: "kilobytes", input: "100K", want: 100 * KiB},
		{name: "kilobytes with iB", input: "100KiB", want: 100 * KiB},
		{name: "megabytes lowercase", input: "50m", want: 50 * MiB},
		{name: "megabytes with B", input: "50MB", want: 50 * MiB},
		{name: "gigabytes", input: "2G", want: 2 * GiB},
		{name: "terabytes with iB", input: "1TiB", want: TiB},
		{name: "surrounding whitespace", input: "  100M  ", want: 100 * MiB},
		{name: "decimal values truncated", input: "1.5G", want: 1610612736},

		{name: "empty string", input: "", wantErr: true},
		{name: "only whitespace", input: "   ", wantErr: true},
		{name: "invalid suffix", input: "100X", wantErr: true},
		{name: "negative value", input: "-100M", wantErr: true},
		{name: "letters only", input: "abc", wantErr: true},
		{name: "suffix only", input: "M", wantErr: true},
		{name: "invalid format", input: "100M100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSizeMB(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{name: "bare number is megabytes", input: "500", want: 500 * MiB},
		{name: "explicit megabytes", input: "500M", want: 500 * MiB},
		{name: "explicit bytes", input: "500B", want: 500},
		{name: "gigabytes", input: "1G", want: GiB},
		{name: "fractional megabytes", input: "0.5", want: 512 * KiB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSizeMB(tt.input)
			if err != nil {
				t.Fatalf("ParseSizeMB(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSizeMB(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSize_NegativeIsSentinel(t *testing.T) {
	_, err := ParseSizeMB("-5")
	if !errors.Is(err, ErrNegativeSize) {
		t.Errorf("ParseSizeMB(-5) error = %v, want ErrNegativeSize", err)
	}

	_, err = ParseSize("ten")
	if !errors.Is(err, ErrInvalidSize) {
		t.Errorf("ParseSize(ten) error = %v, want ErrInvalidSize", err)
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "5", want: 5 * time.Second},
		{input: " 10 ", want: 10 * time.Second},
		{input: "1.5", want: 1500 * time.Millisecond},
		{input: "5s", want: 5 * time.Second},
		{input: "1m30s", want: 90 * time.Second},
		{input: "250ms", want: 250 * time.Millisecond},
		{input: "0", want: 0},
		{input: "-2s", want: -2 * time.Second},
		{input: "", wantErr: true},
		{input: "fast", wantErr: true},
		{input: "NaN", wantErr: true},
		{input: "5 s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDuration) {
					t.Errorf("ParseInterval(%q) error = %v, want ErrInvalidDuration", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInterval(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseInterval(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "zero", bytes: 0, want: "0 B"},
		{name: "bytes", bytes: 500, want: "500 B"},
		{name: "kilobytes", bytes: 1024, want: "1.0 KiB"},
		{name: "megabytes", bytes: 1024 * 1024, want: "1.0 MiB"},
		{name: "gigabytes", bytes: 1024 * 1024 * 1024, want: "1.0 GiB"},
		{name: "mixed size", bytes: 1536 * 1024, want: "1.5 MiB"},
		{name: "negative", bytes: -1024, want: "-1.0 KiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSize(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFileEntry_HumanSize(t *testing.T) {
	f := &FileEntry{Size: 5 * MiB}
	if got := f.HumanSize(); got != "5.0 MiB" {
		t.Errorf("FileEntry.HumanSize() = %q, want %q", got, "5.0 MiB")
	}
}

func TestFormatTime_Zero(t *testing.T) {
	if got := FormatTime(time.Time{}); got != "-" {
		t.Errorf("FormatTime(zero) = %q, want %q", got, "-")
	}
	if got := FormatDate(time.Time{}); got != "-" {
		t.Errorf("FormatDate(zero) = %q, want %q", got, "-")
	}
}
