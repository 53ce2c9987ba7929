package fsutil

import "testing"

func TestIsNameSafe(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		isPath bool
		want   bool
	}{
		{"plain filename", "report.txt", false, true},
		{"leading dot rejected", ".hidden", false, false},
		{"leading dash rejected", "-rf", false, false},
		{"dotdot rejected", "a/../b", true, false},
		{"slash rejected for filename", "a/b", false, false},
		{"slash allowed for path", "a/b", true, true},
		{"semicolon rejected", "a;rm", false, false},
		{"backtick rejected", "`whoami`", false, false},
		{"control char rejected", "a\x01b", false, false},
		{"dot alone allowed", ".", true, true},
		{"dotdot alone rejected", "..", true, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := IsNameSafe(c.input, c.isPath)
			if got != c.want {
				t.Errorf("IsNameSafe(%q, %v) = %v, want %v", c.input, c.isPath, got, c.want)
			}
		})
	}
}
