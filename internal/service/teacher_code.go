package service

import (
	"strconv"
	"strings"
	"unicode"
)

// GenerateTeacherCode derives a short unique code from a full name: first initial, then a
// letter of the surname, then the surname's last letter (e.g. "Ada Lovelace" -> "ALE").
// Successive surname letters are tried before falling back to a numeric suffix.
func GenerateTeacherCode(fullName string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, code := range existing {
		taken[strings.ToUpper(code)] = struct{}{}
	}
	free := func(code string) bool {
		_, ok := taken[code]
		return !ok
	}

	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		for i := 1; ; i++ {
			code := "T" + strconv.Itoa(i)
			if free(code) {
				return code
			}
		}
	}

	first := []rune(parts[0])
	surname := []rune(parts[len(parts)-1])
	initial := string(unicode.ToUpper(first[0]))
	head := string(unicode.ToUpper(surname[0]))
	last := string(unicode.ToUpper(surname[len(surname)-1]))

	attempts := len(surname)
	if attempts < 3 {
		attempts = 3
	}
	for n := 0; n < attempts; n++ {
		nth := head
		if n < len(surname) {
			nth = string(unicode.ToUpper(surname[n]))
		}
		if code := initial + nth + last; free(code) {
			return code
		}
	}
	for i := 1; ; i++ {
		if code := initial + head + last + strconv.Itoa(i); free(code) {
			return code
		}
	}
}
