package backend

import (
	"bytes"
	"testing"
)

func TestTruncateWithinLimit(t *testing.T) {
	data := []byte("hello")
	got := Truncate(data, 10)
	if !bytes.Equal(got, data) {
		t.Errorf("Truncate(%q, 10) = %q, want unchanged", data, got)
	}
}

func TestTruncateOverLimit(t *testing.T) {
	data := []byte("hello world")
	got := Truncate(data, 5)
	if string(got) != "hello" {
		t.Errorf("Truncate(%q, 5) = %q, want %q", data, got, "hello")
	}
}

func TestTruncateZeroOrNegativeMaxIsNoOp(t *testing.T) {
	data := []byte("hello")
	if got := Truncate(data, 0); !bytes.Equal(got, data) {
		t.Errorf("Truncate with max=0 should be a no-op, got %q", got)
	}
	if got := Truncate(data, -1); !bytes.Equal(got, data) {
		t.Errorf("Truncate with negative max should be a no-op, got %q", got)
	}
}
