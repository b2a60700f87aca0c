package service

import "testing"

func TestValidEmail(t *testing.T) {
	cases := map[string]bool{
		"user@example.com":     true,
		"first.last@mail.org":  true,
		"user@yandex.ru":       false,
		"no-at-sign.com":       false,
		"user@localhost":       false,
		"user+tag@example.dev": true,
	}
	for email, want := range cases {
		if got := validEmail(email); got != want {
			t.Fatalf("validEmail(%q) = %v, want %v", email, got, want)
		}
	}
}

func TestValidPassword(t *testing.T) {
	cases := map[string]bool{
		"Secret1!":                true,
		"secret1!":                false,
		"SECRET1!":                false,
		"Secret!!":                false,
		"Secret11":                false,
		"Se1!":                    false,
		"Secret1! with spaces":    false,
		"VeryLongPassword123!!xx": false,
	}
	for pw, want := range cases {
		if got := validPassword(pw); got != want {
			t.Fatalf("validPassword(%q) = %v, want %v", pw, got, want)
		}
	}
}

func TestValidName(t *testing.T) {
	if !validName("Anna-Maria") || !validName("Олена") || !validName("O'Neil") {
		t.Fatalf("expected names to be valid")
	}
	if validName("A") || validName("R2D2") {
		t.Fatalf("expected names to be invalid")
	}
}
