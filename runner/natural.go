package runner

import (
	"strconv"
	"strings"
)

// naturalLess orders strings so that digit runs compare by value
// ("page2" < "page10") and text compares case-insensitively.
func naturalLess(a, b string) bool {
	ca, cb := naturalChunks(a), naturalChunks(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		x, y := ca[i], cb[i]
		if x.numeric && y.numeric {
			if x.value != y.value {
				return x.value < y.value
			}
			continue
		}
		if x.numeric != y.numeric {
			// digits sort before letters
			return x.numeric
		}
		if x.text != y.text {
			return x.text < y.text
		}
	}
	if len(ca) != len(cb) {
		return len(ca) < len(cb)
	}
	return a < b
}

type chunk struct {
	text    string
	value   uint64
	numeric bool
}

func naturalChunks(s string) []chunk {
	var out []chunk
	for len(s) > 0 {
		digits := isDigit(rune(s[0]))
		end := strings.IndexFunc(s, func(r rune) bool { return isDigit(r) != digits })
		if end < 0 {
			end = len(s)
		}
		part := s[:end]
		s = s[end:]
		if digits {
			v, err := strconv.ParseUint(part, 10, 64)
			if err == nil {
				out = append(out, chunk{text: part, value: v, numeric: true})
				continue
			}
		}
		out = append(out, chunk{text: strings.ToLower(part)})
	}
	return out
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
