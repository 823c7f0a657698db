package tools

import (
	"context"
	"testing"
)

func TestCalculator_Operations(t *testing.T) {
	c := &CalculatorTool{}
	tests := []struct {
		name, in, want string
	}{
		{"add", "add 1 2", "3"},
		{"sub", "sub 5 2", "3"},
		{"mul", "mul 3 4", "12"},
		{"div", "div 8 2", "4"},
		{"mod", "mod 7 3", "1"},
		{"pow", "pow 2 3", "8"},
		{"sqrt", "sqrt 9", "3"},
		{"float result", "div 1 4", "0.25"},
		{"case insensitive op", "ADD 1 2", "3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Execute(context.Background(), tc.in)
			if err != nil {
				t.Fatalf("%s: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("%s = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCalculator_Errors(t *testing.T) {
	c := &CalculatorTool{}
	cases := []string{
		"",
		"add",
		"add 1",
		"add 1 2 3",
		"add one 2",
		"div 1 0",
		"mod 1 0",
		"sqrt -1",
		"sqrt 4 9",
		"noop 1 2",
	}
	for _, in := range cases {
		if _, err := c.Execute(context.Background(), in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
