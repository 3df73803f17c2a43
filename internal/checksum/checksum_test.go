package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	if a != b {
		t.Fatalf("Sum not stable: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
}

func TestSumParts_NoBoundaryCollision(t *testing.T) {
	if SumParts("ab", "c") == SumParts("a", "bc") {
		t.Error("part boundaries should change the digest")
	}
	if SumParts("x", "y") != SumParts("x", "y") {
		t.Error("SumParts not stable")
	}
}
