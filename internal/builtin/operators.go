// Package builtin implements the pure matching predicates that the matcher
// compiler links into compiled expressions: keyMatch, keyMatch2, keyMatch3,
// regexMatch, and ipMatch. All functions are total: they return false on any
// malformed input rather than panicking or returning an error.
package builtin

import (
	"net"
	"regexp"
	"strings"
)

// KeyMatch reports whether k1 matches the pattern k2, where a "*" in k2
// matches any run of characters and every other character is literal.
// Without a "*", KeyMatch degrades to plain string equality. The match is
// whole-string anchored.
func KeyMatch(k1, k2 string) bool {
	if !strings.Contains(k2, "*") {
		return k1 == k2
	}
	pattern := "^" + globToRegexp(k2) + "$"
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(k1)
}

// globToRegexp escapes every regexp metacharacter in k2 except "*", which it
// rewrites to ".*".
func globToRegexp(k2 string) string {
	var b strings.Builder
	for _, r := range k2 {
		if r == '*' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return b.String()
}

// KeyMatch2 implements Casbin's path-parameter matcher: if k2 contains a
// ":", both keys are split on "/" and compared segment by segment, where a
// k2 segment beginning with ":" matches any segment of k1, empty included. Segment
// counts must match. Without a ":" in k2, KeyMatch2 falls back to KeyMatch.
func KeyMatch2(k1, k2 string) bool {
	if !strings.Contains(k2, ":") {
		return KeyMatch(k1, k2)
	}

	parts1 := strings.Split(k1, "/")
	parts2 := strings.Split(k2, "/")
	if len(parts1) != len(parts2) {
		return false
	}
	for i, seg2 := range parts2 {
		if strings.HasPrefix(seg2, ":") {
			continue
		}
		if seg2 != parts1[i] {
			return false
		}
	}
	return true
}

// KeyMatch3 has the same contract as KeyMatch in this revision; it is kept
// as its own named function so a future revision that diverges from plain
// glob matching (e.g. Casbin's "{param}" brace syntax) does not require
// touching every call site.
func KeyMatch3(k1, k2 string) bool {
	return KeyMatch(k1, k2)
}

// RegexMatch reports whether k1 matches the regular expression k2. An
// invalid regex in k2 yields false rather than propagating a compile error,
// keeping every built-in total.
func RegexMatch(k1, k2 string) bool {
	re, err := regexp.Compile(k2)
	if err != nil {
		return false
	}
	return re.MatchString(k1)
}

// IPMatch reports whether ip1 lies within the network described by ip2.
// ip2 may be a bare address (exact match after normalization) or a CIDR
// block, in which case ip1 must parse as a plain address contained in that
// block. Malformed addresses on either side yield false.
func IPMatch(ip1, ip2 string) bool {
	addr1 := net.ParseIP(ip1)
	if addr1 == nil {
		return false
	}

	if strings.Contains(ip2, "/") {
		_, network, err := net.ParseCIDR(ip2)
		if err != nil {
			return false
		}
		return network.Contains(addr1)
	}

	addr2 := net.ParseIP(ip2)
	if addr2 == nil {
		return false
	}
	return addr1.Equal(addr2)
}
