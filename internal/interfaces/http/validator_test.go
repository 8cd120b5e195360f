package http

import "testing"

func TestValidPhoneNumber(t *testing.T) {
	valid := []string{"+34910000000", "+15551234567", "+441632960961"}
	invalid := []string{"", "910000000", "+0123456", "+34 910 000 000", "+34910000000000000", "phone"}

	for _, n := range valid {
		if !ValidPhoneNumber(n) {
			t.Errorf("ValidPhoneNumber(%q) = false, want true", n)
		}
	}
	for _, n := range invalid {
		if ValidPhoneNumber(n) {
			t.Errorf("ValidPhoneNumber(%q) = true, want false", n)
		}
	}
}

func TestValidLocale(t *testing.T) {
	valid := []string{"es", "es-ES", "en-US", "fr"}
	invalid := []string{"", "ES", "es-es", "spanish", "es_ES"}

	for _, l := range valid {
		if !ValidLocale(l) {
			t.Errorf("ValidLocale(%q) = false, want true", l)
		}
	}
	for _, l := range invalid {
		if ValidLocale(l) {
			t.Errorf("ValidLocale(%q) = true, want false", l)
		}
	}
}

func TestSanitizeStringStripsNullBytes(t *testing.T) {
	if got := SanitizeString("hola\x00mundo"); got != "holamundo" {
		t.Errorf("SanitizeString = %q", got)
	}
}
