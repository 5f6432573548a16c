package nullsink

import "testing"

func TestSink_PrepareThenWriteDoesNotError(t *testing.T) {
	s := New()
	if err := s.Prepare(48000, 128); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	left := make([]float32, 128)
	right := make([]float32, 128)
	if err := s.Write(left, right); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}
