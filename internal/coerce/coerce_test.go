package coerce

import (
	"math"
	"testing"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"42", 42, true},
		{" 17 ", 17, true},
		{"", 0, true},
		{"2.5", 3, true},
		{"-2.5", -2, true},
		{"1e3", 1000, true},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Infinity", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseInt(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseInt(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"float", 12.4, 12},
		{"numeric string", "99", 99},
		{"bad string", "x", -1},
		{"true", true, 1},
		{"false", false, 0},
		{"nil", nil, -1},
		{"object", map[string]any{}, -1},
		{"nan", math.NaN(), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Int(tt.in, -1); got != tt.want {
				t.Errorf("Int(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	truthy := []any{true, 1.0, "yes", map[string]any{}, []any{}}
	falsy := []any{nil, false, 0.0, "", math.NaN()}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Errorf("Truthy(%v) = false, want true", v)
		}
	}
	for _, v := range falsy {
		if Truthy(v) {
			t.Errorf("Truthy(%v) = true, want false", v)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(500, 0, 400); got != 400 {
		t.Errorf("Clamp(500) = %d", got)
	}
	if got := Clamp(-3, 0, 400); got != 0 {
		t.Errorf("Clamp(-3) = %d", got)
	}
	if got := Clamp(7, 1, 4); got != 4 {
		t.Errorf("Clamp(7,1,4) = %d", got)
	}
}
