package builtin

import "testing"

func TestKeyMatch(t *testing.T) {
	cases := []struct {
		k1, k2 string
		want   bool
	}{
		{"/foo/bar", "/foo/*", true},
		{"/foo", "/foo/*", false},
		{"/foo/bar", "/foo/bar", true},
		{"/foo/bar", "/foo/baz", false},
		{"anything", "*", true},
	}
	for _, c := range cases {
		if got := KeyMatch(c.k1, c.k2); got != c.want {
			t.Errorf("KeyMatch(%q, %q) = %v, want %v", c.k1, c.k2, got, c.want)
		}
	}
}

func TestKeyMatch2(t *testing.T) {
	cases := []struct {
		k1, k2 string
		want   bool
	}{
		{"/alice/123", "/:name/:id", true},
		{"/alice", "/:name/:id", false},
		{"/alice/123/x", "/:name/:id", false},
		{"/foo/bar", "/foo/bar", true},
		{"/foo/bar", "/foo/*", true},
	}
	for _, c := range cases {
		if got := KeyMatch2(c.k1, c.k2); got != c.want {
			t.Errorf("KeyMatch2(%q, %q) = %v, want %v", c.k1, c.k2, got, c.want)
		}
	}
}

func TestKeyMatch3IsKeyMatchAlias(t *testing.T) {
	if KeyMatch3("/foo/bar", "/foo/*") != KeyMatch("/foo/bar", "/foo/*") {
		t.Error("KeyMatch3 diverged from KeyMatch")
	}
}

func TestRegexMatch(t *testing.T) {
	if !RegexMatch("/data/123", `^/data/\d+$`) {
		t.Error("expected regex match")
	}
	if RegexMatch("/data/abc", `^/data/\d+$`) {
		t.Error("expected no regex match")
	}
	if RegexMatch("anything", "(unterminated") {
		t.Error("invalid regex should yield false, not panic")
	}
}

func TestIPMatch(t *testing.T) {
	cases := []struct {
		ip1, ip2 string
		want     bool
	}{
		{"192.168.1.5", "192.168.1.0/24", true},
		{"192.168.2.5", "192.168.1.0/24", false},
		{"10.0.0.1", "10.0.0.1", true},
		{"10.0.0.1", "10.0.0.2", false},
		{"not-an-ip", "10.0.0.0/8", false},
		{"10.0.0.1", "not-a-cidr/8", false},
		{"::1", "::1/128", true},
	}
	for _, c := range cases {
		if got := IPMatch(c.ip1, c.ip2); got != c.want {
			t.Errorf("IPMatch(%q, %q) = %v, want %v", c.ip1, c.ip2, got, c.want)
		}
	}
}
