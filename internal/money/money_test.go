package money

import (
	"math"
	"testing"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1629.822617, 1629.82},
		{112.217711, 112.22},
		{-101.855094, -101.86},
		{0.005, 0.01},
		{-0.005, -0.01},
		{0, 0},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Errorf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFormat2(t *testing.T) {
	if got := Format2(1629.822617); got != "1629.82" {
		t.Errorf("Format2 = %q, want %q", got, "1629.82")
	}
	if got := Format2(53.3); got != "53.30" {
		t.Errorf("Format2 = %q, want %q", got, "53.30")
	}
}

func TestParse_StripsThousandsSeparators(t *testing.T) {
	v, err := Parse("-2,290")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if v != -2290 {
		t.Errorf("Parse = %v, want -2290", v)
	}
}

func TestParse_ParenthesizedNegatives(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"(123.45)", -123.45},
		{"(2,290)", -2290},
		{" (0.50) ", -0.5},
	}
	for _, c := range cases {
		v, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", c.in, err)
		}
		if v != c.want {
			t.Errorf("Parse(%q) = %v, want %v", c.in, v, c.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse("()"); err == nil {
		t.Error("expected error for empty parenthesized amount")
	}
	if _, err := Parse(""); err == nil {
		t.Error("expected error for empty amount")
	}
	if _, err := Parse("abc"); err == nil {
		t.Error("expected error for non-numeric amount")
	}
}

func TestRunningTotal_RoundsAfterEachAddition(t *testing.T) {
	var r RunningTotal
	r.Add(0.004)
	r.Add(0.004)
	// Each addition is rounded: 0.004 -> 0.00, so the total stays 0,
	// while naive end rounding of 0.008 would give 0.01.
	if got := r.Value(); got != 0 {
		t.Errorf("running total = %v, want 0", got)
	}
}

func TestRunningTotal_MatchesGoldenSum(t *testing.T) {
	var r RunningTotal
	r.Add(112.217711)
	got := r.Add(53.34)
	if math.Abs(got-165.56) > 1e-9 {
		t.Errorf("running total = %v, want 165.56", got)
	}
}
