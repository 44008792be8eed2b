package resolver

import (
	"strconv"
	"strings"
)

// substituteState names the 4 states of the capture-substitution scanner.
type substituteState int

const (
	stateIdle substituteState = iota
	stateSawQuestion
	stateSawDollar
	stateReadingDigits
)

// Substitute rewrites an url_template by replacing $N (verbatim) and ?$N
// (percent-encoded) capture references, honoring \c as a literal escape.
// Runs as an explicit character scanner rather than a regexp, per the
// template's own escaping rules.
func Substitute(template string, captures []string) (string, error) {
	var out strings.Builder
	runes := []rune(template)
	i := 0
	state := stateIdle
	encode := false
	var digits strings.Builder

	for i < len(runes) {
		c := runes[i]
		switch state {
		case stateIdle:
			switch c {
			case '\\':
				if i+1 < len(runes) {
					out.WriteRune(runes[i+1])
					i += 2
					continue
				}
				i++
			case '?':
				state = stateSawQuestion
				i++
			case '$':
				state = stateSawDollar
				encode = false
				i++
			default:
				out.WriteRune(c)
				i++
			}
			continue

		case stateSawQuestion:
			if c == '$' {
				state = stateSawDollar
				encode = true
				i++
				continue
			}
			out.WriteRune('?')
			state = stateIdle
			continue // reprocess c

		case stateSawDollar:
			if c >= '0' && c <= '9' {
				state = stateReadingDigits
				digits.Reset()
				digits.WriteRune(c)
				i++
				continue
			}
			out.WriteRune('$')
			state = stateIdle
			continue // reprocess c

		case stateReadingDigits:
			if c >= '0' && c <= '9' {
				digits.WriteRune(c)
				i++
				continue
			}
			if err := flushCapture(&out, digits.String(), encode, captures); err != nil {
				return "", err
			}
			state = stateIdle
			digits.Reset()
			continue // reprocess c
		}
	}

	switch state {
	case stateReadingDigits:
		if err := flushCapture(&out, digits.String(), encode, captures); err != nil {
			return "", err
		}
	case stateSawDollar:
		out.WriteRune('$')
	case stateSawQuestion:
		out.WriteRune('?')
	}

	return out.String(), nil
}

// flushCapture resolves a buffered digit string to a capture group and
// writes it (optionally percent-encoded) to out.
func flushCapture(out *strings.Builder, digits string, encode bool, captures []string) error {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return newError(ErrParseInt, "capture group %q is not a valid number", digits)
	}
	if n < 0 || n >= len(captures) {
		return newError(ErrInvalidCaptureGroup, "capture group %d out of range (have %d)", n, len(captures))
	}

	value := captures[n]
	if encode {
		out.WriteString(percentEncodeUnreserved(value))
	} else {
		out.WriteString(value)
	}
	return nil
}

// percentEncodeUnreserved percent-encodes every byte outside RFC 3986's
// unreserved set (ALPHA / DIGIT / "-" / "." / "_" / "~").
func percentEncodeUnreserved(s string) string {
	var b strings.Builder
	const hex = "0123456789ABCDEF"
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	default:
		return false
	}
}
