package main

import "testing"

func TestMaskKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "not set"},
		{"short", "set"},
		{"12345678", "set"},
		{"sk-abcdef1234567890", "sk-a...7890"},
	}
	for _, tc := range cases {
		if got := maskKey(tc.in); got != tc.want {
			t.Errorf("maskKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
