package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tok := New(nil)
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "the cat sat", []string{"the", "cat", "sat"}},
		{"mixed case", "The CAT Sat", []string{"the", "cat", "sat"}},
		{"punctuation", "hello, world! it's fine.", []string{"hello", "world", "it", "s", "fine"}},
		{"digits kept", "version 2 beta3", []string{"version", "2", "beta3"}},
		{"unicode letters", "Über straße", []string{"über", "straße"}},
		{"empty", "", nil},
		{"only separators", " ,.;! ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizeStopwords(t *testing.T) {
	tok := New([]string{"the", "AND"})
	got := tok.Tokenize("The cat and the dog")
	want := []string{"cat", "dog"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize with stopwords = %v, want %v", got, want)
	}
}

func TestTokenizeNoStopwordsByDefault(t *testing.T) {
	tok := New(nil)
	got := tok.Tokenize("the cat")
	want := []string{"the", "cat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}
