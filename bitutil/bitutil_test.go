package bitutil

import "testing"

func TestIsSet(t *testing.T) {
	cases := []struct {
		v    uint32
		i    uint
		want bool
	}{
		{0b0000, 0, false},
		{0b0001, 0, true},
		{0b0010, 0, false},
		{0b0010, 1, true},
		{0b1000_0000, 7, true},
		{0b0111_1111, 7, false},
	}
	for _, c := range cases {
		if got := IsSet(c.v, c.i); got != c.want {
			t.Errorf("IsSet(%b, %d) = %v, want %v", c.v, c.i, got, c.want)
		}
	}
}

func TestSet(t *testing.T) {
	if got := Set(0, 0); got != 1 {
		t.Errorf("Set(0, 0) = %d, want 1", got)
	}
	if got := Set(0, 3); got != 0b1000 {
		t.Errorf("Set(0, 3) = %b, want 1000", got)
	}
	// Setting an already-set bit is a no-op.
	if got := Set(0b1010, 1); got != 0b1010 {
		t.Errorf("Set(1010, 1) = %b, want 1010", got)
	}
}

func TestLower(t *testing.T) {
	cases := []struct {
		v    uint32
		k    uint
		want uint32
	}{
		{0b1111, 0, 0},
		{0b1111, 1, 0b1},
		{0b1111, 2, 0b11},
		{0b1010_1010, 4, 0b1010},
		{0xFFFFFFFF, 32, 0xFFFFFFFF},
	}
	for _, c := range cases {
		if got := Lower(c.v, c.k); got != c.want {
			t.Errorf("Lower(%b, %d) = %b, want %b", c.v, c.k, got, c.want)
		}
	}
}
