package similarity

import "testing"

func TestSoundex(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"robert", "Robert", "R163"},
		{"rupert same code", "Rupert", "R163"},
		{"tymczak", "Tymczak", "T522"},
		{"pfister", "Pfister", "P236"},
		{"honeyman", "Honeyman", "H555"},
		{"flange", "FLANGE", "F452"},
		{"flang corrupted", "FLANG", "F452"},
		{"short padded", "PI", "P000"},
		{"no letters", "1234", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Soundex(tt.in); got != tt.expected {
				t.Errorf("Soundex(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}
