package enumerator_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/deidaraiorek/babelsearch/internal/babel/apperr"
	"github.com/deidaraiorek/babelsearch/internal/babel/enumerator"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Hello   World  ", "hello world"},
		{"ALREADY lower", "already lower"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := enumerator.NormalizeQuery(tt.in); got != tt.want {
			t.Errorf("NormalizeQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractNgramsOrderAndDedup(t *testing.T) {
	got := enumerator.ExtractNgrams("aaa", 1, 2)
	want := []string{"aa", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractNgrams = %v, want %v", got, want)
	}
}

func TestEnumerateEmptyQuery(t *testing.T) {
	_, err := enumerator.Enumerate("   ", enumerator.Defaults())
	if !errors.Is(err, apperr.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestEnumerateInvalidConfig(t *testing.T) {
	cfg := enumerator.Defaults()
	cfg.MinNgram = 0
	_, err := enumerator.Enumerate("hello", cfg)
	if !errors.Is(err, apperr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEnumerateDeterministic(t *testing.T) {
	cfg := enumerator.Config{MinNgram: 2, MaxNgram: 5, Depth: 2, MaxResults: 5}

	first, err := enumerator.Enumerate("hello world", cfg)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	second, err := enumerator.Enumerate("hello world", cfg)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Enumerate not deterministic:\n%v\n%v", first, second)
	}
	if len(first) != 5 {
		t.Fatalf("len = %d, want 5", len(first))
	}

	for i := 1; i < len(first); i++ {
		if first[i-1].Score < first[i].Score {
			t.Fatalf("results not sorted descending by score at %d", i)
		}
	}

	sawHello, sawWorld := false, false
	for _, c := range first {
		for g := range c.Ngrams {
			if g == "hello" {
				sawHello = true
			}
			if g == "world" {
				sawWorld = true
			}
		}
	}
	if !sawHello || !sawWorld {
		t.Fatalf("expected candidates from both 'hello' and 'world', hello=%v world=%v", sawHello, sawWorld)
	}
}

func TestEnumerateShortQueryYieldsNoCandidates(t *testing.T) {
	cfg := enumerator.Config{MinNgram: 5, MaxNgram: 5, Depth: 1, MaxResults: 10}
	out, err := enumerator.Enumerate("hi", cfg)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected 0 candidates, got %d", len(out))
	}
}

func TestEnumerateTieBreakByAddress(t *testing.T) {
	cfg := enumerator.Config{MinNgram: 2, MaxNgram: 2, Depth: 1, MaxResults: 100}
	out, err := enumerator.Enumerate("ab cd", cfg)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	for i := 1; i < len(out); i++ {
		if out[i-1].Score == out[i].Score && out[i-1].Address > out[i].Address {
			t.Fatalf("tie not broken by ascending address at %d", i)
		}
	}
}
