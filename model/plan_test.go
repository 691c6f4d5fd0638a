package model

import "testing"

func TestRequirement(t *testing.T) {
	cases := []struct {
		v, max, want int
	}{
		{0, MaxCons, 0},
		{-2, MaxCons, 0},
		{1, MaxCons, 1},
		{6, MaxCons, 6},
		{9, MaxCons, MaxCons},
		{12, MaxTrace, MaxTrace},
	}
	for _, c := range cases {
		if got := Requirement(c.v, c.max); got != c.want {
			t.Errorf("Requirement(%d, %d) = %d, want %d", c.v, c.max, got, c.want)
		}
	}
}
