package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ExpandDuration expand duration string into seconds
func ExpandDuration(val string) (res float64, err error) {
	var num float64

	factors := []struct {
		suffix string
		factor float64
	}{
		{"ms", 0.001},
		{"s", 1},
		{"m", 60},
		{"h", 3600},
		{"d", 86400},
	}

	for _, f := range factors {
		if strings.HasSuffix(val, f.suffix) {
			num, err = strconv.ParseFloat(strings.TrimSuffix(val, f.suffix), 64)
			res = num * f.factor
			if err != nil {
				return 0, fmt.Errorf("expandDuration: %s", err.Error())
			}

			return res, nil
		}
	}
	if IsDigitsOnly(val) {
		res, err = strconv.ParseFloat(val, 64)

		if err != nil {
			return 0, fmt.Errorf("expandDuration: %s", err.Error())
		}

		return res, nil
	}

	return 0, fmt.Errorf("expandDuration: cannot parse duration, unknown format in %s", val)
}

// IsDigitsOnly returns true if string only contains numbers
func IsDigitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !unicode.IsDigit(c) {
			return false
		}
	}

	return true
}

// LeadingNumber returns the first number found in str, ex.: "up 42 days" -> 42
func LeadingNumber(str string) (float64, bool) {
	start := strings.IndexFunc(str, func(r rune) bool {
		return unicode.IsDigit(r)
	})
	if start == -1 {
		return 0, false
	}
	if start > 0 && str[start-1] == '-' {
		start--
	}

	end := start + 1
	dot := false
	for end < len(str) {
		char := str[end]
		if char == '.' && !dot {
			dot = true
			end++

			continue
		}
		if char < '0' || char > '9' {
			break
		}
		end++
	}

	num, err := strconv.ParseFloat(strings.TrimSuffix(str[start:end], "."), 64)
	if err != nil {
		return 0, false
	}

	return num, true
}

// ElapsedString formats seconds like ps etime: [[dd-]hh:]mm:ss
func ElapsedString(dur time.Duration) string {
	seconds := int64(dur.Seconds())

	days := seconds / 86400
	seconds -= days * 86400

	hours := seconds / 3600
	seconds -= hours * 3600

	minutes := seconds / 60
	seconds -= minutes * 60

	switch {
	case days > 0:
		return fmt.Sprintf("%d-%02d:%02d:%02d", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	default:
		return fmt.Sprintf("%02d:%02d", minutes, seconds)
	}
}

// Tokenize returns list of string tokens
func Tokenize(str string) []string {
	return (TokenizeBy(str, " \t\n\r"))
}

// TokenizeBy returns list of string tokens separated by any char in separator
func TokenizeBy(str, separator string) []string {
	var tokens []string

	inQuotes := false
	inDbl := false
	token := make([]rune, 0)
	for _, char := range str {
		switch {
		case char == '"':
			if !inQuotes {
				inDbl = !inDbl
			}
			token = append(token, char)
		case char == '\'':
			if !inDbl {
				inQuotes = !inQuotes
			}
			token = append(token, char)
		case strings.ContainsRune(separator, char):
			switch {
			case inQuotes, inDbl:
				token = append(token, char)
			case len(token) > 0:
				tokens = append(tokens, string(token))
				token = make([]rune, 0)
			}
		default:
			token = append(token, char)
		}
	}
	tokens = append(tokens, string(token))

	return tokens
}

// TrimQuotes removes one level of surrounding single or double quotes.
func TrimQuotes(str string) string {
	if len(str) >= 2 {
		first, last := str[0], str[len(str)-1]
		if (first == '"' || first == '\'') && first == last {
			return str[1 : len(str)-1]
		}
	}

	return str
}
