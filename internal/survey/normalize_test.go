package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases and trims", "  Masculino  ", "masculino"},
		{"removes anos", "25 anos", "25"},
		{"removes ano", "1 ano", "1"},
		{"removes empty parentheses", "Pardo ( )", "pardo"},
		{"strips wrapping parentheses", "(Solteiro)", "solteiro"},
		{"repairs truncated parenthesis", "Ensino Médio (completo", "ensino médio (completo)"},
		{"keeps balanced parentheses", "Superior (completo)", "superior (completo)"},
		{"collapses whitespace", "casado   ou\tunião  estável", "casado ou união estável"},
		{"composes decomposed accents", "Ge\u0302nero", "g\u00eanero"},
		{"empty stays empty", "", ""},
		{"whitespace becomes empty", "   ", ""},
		{"removal exposing a new token", "aanono", ""},
		{"nested parentheses", "( (a) )", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeText(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeText(got), "normalization must be idempotent")
		})
	}
}

func TestNormalize_PassesNonText(t *testing.T) {
	for _, v := range []Value{Missing(), Int(0), Int(42), Int(-7)} {
		assert.Equal(t, v, Normalize(v))
	}
}

func TestNormalize_Text(t *testing.T) {
	got := Normalize(Text(" Feminino "))
	s, ok := got.AsText()
	assert.True(t, ok)
	assert.Equal(t, "feminino", s)
}

func FuzzNormalizeText(f *testing.F) {
	for _, seed := range []string{
		"", " ", "anos", "aanono", "anananoos", "(()", "())", "( ( ) )",
		"((((a", "a)))", "Idade (anos)", "Ensino Médio (completo",
		" x ", "(\t)", "ano(", "áno",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		once := NormalizeText(s)
		if twice := NormalizeText(once); twice != once {
			t.Fatalf("not idempotent: %q -> %q -> %q", s, once, twice)
		}
	})
}
