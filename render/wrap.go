package render

import "strings"

// wrap breaks s into lines of at most width characters, splitting on
// whitespace. Words longer than width are cut.
func wrap(s string, width int) []string {
	var (
		lines []string
		cur   []rune
	)
	flush := func() {
		lines = append(lines, string(cur))
		cur = nil
	}

	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > 0 {
			sep := 0
			if len(cur) > 0 {
				sep = 1
			}
			if len(cur)+sep+len(w) <= width {
				if sep == 1 {
					cur = append(cur, ' ')
				}
				cur = append(cur, w...)
				break
			}
			if len(w) <= width {
				flush()
				continue
			}

			space := width - len(cur) - sep
			if space <= 0 {
				flush()
				continue
			}
			if sep == 1 {
				cur = append(cur, ' ')
			}
			cur = append(cur, w[:space]...)
			w = w[space:]
			flush()
		}
	}
	if len(cur) > 0 {
		flush()
	}
	return lines
}
