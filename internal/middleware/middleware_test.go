package middleware

import "testing"

func TestCleanTag(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"#2PP0G9UY", "2PP0G9UY", true},
		{"2PP0G9UY", "2PP0G9UY", true},
		{" #ABC ", "ABC", true},
		{"ab", "", false},
		{"abc", "", false}, // lowercase rejected
		{"#A!", "", false},
		{"", "", false},
		{"#", "", false},
	}

	for _, tc := range cases {
		got, ok := CleanTag(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("CleanTag(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
