package main

import "testing"

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain park name",
			input:    "Parque Nacional Iguazú",
			expected: "iguazu",
		},
		{
			name:     "PN abbreviation",
			input:    "PN Baritú",
			expected: "baritu",
		},
		{
			name:     "Nucleo prefix and sector parenthetical",
			input:    "Núcleo Puerto Iguazú (Sector Administrativo)",
			expected: "puerto iguazu",
		},
		{
			name:     "Marine park role words",
			input:    "Parque Nacional Marino Isla Pingüino",
			expected: "isla pinguino",
		},
		{
			name:     "HTML markup dropped",
			input:    "<b>El Palmar</b><br>",
			expected: "el palmar",
		},
		{
			name:     "Reserva and provincia vocabulary",
			input:    "Reserva Nacional El Leoncito, Provincia de San Juan",
			expected: "el leoncito de san juan",
		},
		{
			name:     "Slash and pipe separators",
			input:    "Lanín/Neuquén|Sur",
			expected: "lanin neuquen sur",
		},
		{
			name:     "Punctuation collapsed",
			input:    "Pre-Delta",
			expected: "pre delta",
		},
		{
			name:     "Empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "Whitespace only",
			input:    "   \t  ",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeName(tc.input)
			if got != tc.expected {
				t.Errorf("NormalizeName(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"Parque Nacional Iguazú",
		"PN Baritú",
		"Núcleo Puerto Iguazú (Sector Administrativo)",
		"Monte León",
		"reserva nacional / el rey",
		"",
	}

	for _, input := range inputs {
		once := NormalizeName(input)
		twice := NormalizeName(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNormalizeNameDiacriticAndCaseInsensitive(t *testing.T) {
	pairs := [][2]string{
		{"Baritú", "baritu"},
		{"IGUAZÚ", "iguazu"},
		{"Lanín", "LANIN"},
		{"Mburucuyá", "mburucuya"},
	}

	for _, pair := range pairs {
		a, b := NormalizeName(pair[0]), NormalizeName(pair[1])
		if a != b {
			t.Errorf("NormalizeName(%q) = %q but NormalizeName(%q) = %q", pair[0], a, pair[1], b)
		}
	}
}
