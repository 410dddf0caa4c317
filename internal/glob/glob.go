// Package glob matches keys and channel names against Redis-style patterns:
// '*', '?', '[abc]', '[^a]', '[a-z]' and '\' escapes.
package glob

// Match reports whether str matches pattern
func Match(pattern, str string) bool {
	return match(pattern, str, false)
}

// MatchFold is Match ignoring ASCII case
func MatchFold(pattern, str string) bool {
	return match(pattern, str, true)
}

func lower(c byte, fold bool) byte {
	if fold && c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func match(p, s string, fold bool) bool {
	for len(p) > 0 {
		switch p[0] {
		case '*':
			for len(p) > 1 && p[1] == '*' {
				p = p[1:]
			}
			if len(p) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if match(p[1:], s[i:], fold) {
					return true
				}
			}
			return false

		case '?':
			if len(s) == 0 {
				return false
			}
			s = s[1:]
			p = p[1:]

		case '[':
			if len(s) == 0 {
				return false
			}
			rest, ok := matchClass(p[1:], s[0], fold)
			if !ok {
				return false
			}
			p = rest
			s = s[1:]

		case '\\':
			if len(p) >= 2 {
				p = p[1:]
			}
			fallthrough

		default:
			if len(s) == 0 || lower(p[0], fold) != lower(s[0], fold) {
				return false
			}
			s = s[1:]
			p = p[1:]
		}
	}
	return len(s) == 0
}

// matchClass matches c against a bracket expression starting after '['.
// It returns the pattern remainder after the closing ']'
func matchClass(p string, c byte, fold bool) (string, bool) {
	negate := false
	if len(p) > 0 && p[0] == '^' {
		negate = true
		p = p[1:]
	}

	matched := false
	c = lower(c, fold)
	for len(p) > 0 && p[0] != ']' {
		switch {
		case p[0] == '\\' && len(p) >= 2:
			if lower(p[1], fold) == c {
				matched = true
			}
			p = p[2:]
		case len(p) >= 3 && p[1] == '-' && p[2] != ']':
			lo, hi := lower(p[0], fold), lower(p[2], fold)
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			p = p[3:]
		default:
			if lower(p[0], fold) == c {
				matched = true
			}
			p = p[1:]
		}
	}
	if len(p) > 0 {
		// closing bracket
		p = p[1:]
	}

	return p, matched != negate
}
