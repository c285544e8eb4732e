package util

import "testing"

func TestFormatBytesReadable(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{1024 * 1024 * 1024, "1.0 GiB"},
	}
	for _, c := range cases {
		if got := FormatBytesReadable(c.in); got != c.want {
			t.Errorf("FormatBytesReadable(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatDurationFromSecs(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3661, "1:01:01"},
		{-5, "0:00"},
	}
	for _, c := range cases {
		if got := FormatDurationFromSecs(c.in); got != c.want {
			t.Errorf("FormatDurationFromSecs(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCalculateSizeReduction(t *testing.T) {
	if got := CalculateSizeReduction(0, 100); got != 0 {
		t.Errorf("CalculateSizeReduction(0, 100) = %v, want 0", got)
	}
	if got := CalculateSizeReduction(100, 50); got != 50 {
		t.Errorf("CalculateSizeReduction(100, 50) = %v, want 50", got)
	}
	if got := CalculateSizeReduction(100, 100); got != 0 {
		t.Errorf("CalculateSizeReduction(100, 100) = %v, want 0", got)
	}
}
