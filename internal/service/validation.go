package service

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailPattern = regexp.MustCompile("^[a-zA-Z0-9!#$%&'*+/=?^_`{|}~.-]+@([a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?\\.)+[a-zA-Z]{2,}$")
	namePattern  = regexp.MustCompile(`^[\p{L}' -]{2,50}$`)
	titlePattern = regexp.MustCompile(`^[\p{L}0-9 .'-]{2,100}$`)
)

const passwordSpecials = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail rechaza además los dominios .ru.
func validEmail(email string) bool {
	if !emailPattern.MatchString(email) {
		return false
	}
	return !strings.HasSuffix(strings.ToLower(email), ".ru")
}

// validPassword exige 8-20 caracteres sin espacios con dígito, minúscula, mayúscula y símbolo.
func validPassword(password string) bool {
	n := len([]rune(password))
	if n < 8 || n > 20 {
		return false
	}
	var digit, lower, upper, special bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return false
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return digit && lower && upper && special
}

func validName(name string) bool {
	return namePattern.MatchString(name)
}

func validTitle(s string) bool {
	return titlePattern.MatchString(s)
}

// lengthBetween cuenta runas, no bytes.
func lengthBetween(s string, min, max int) bool {
	n := len([]rune(s))
	return n >= min && n <= max
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
