package util

import "testing"

func TestHashBytesDeterministic(t *testing.T) {
	a := HashBytes([]byte("pdf bytes"))
	b := HashBytes([]byte("pdf bytes"))
	if a != b {
		t.Fatalf("expected identical hashes, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestHashBytesDistinguishesContent(t *testing.T) {
	if HashBytes([]byte("a")) == HashBytes([]byte("b")) {
		t.Fatalf("different content produced the same hash")
	}
}
