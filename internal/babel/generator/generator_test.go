package generator_test

import (
	"strings"
	"testing"

	"github.com/deidaraiorek/babelsearch/internal/babel/generator"
)

func TestAddressToPageDeterministic(t *testing.T) {
	tests := []struct {
		name    string
		address string
	}{
		{"hex address", "deadbeef"},
		{"empty address", ""},
		{"non-hex address", "hello world!!"},
		{"long address", strings.Repeat("ab", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := generator.AddressToPage(tt.address)
			second := generator.AddressToPage(tt.address)

			if first != second {
				t.Fatalf("AddressToPage(%q) not deterministic", tt.address)
			}
			if len(first) != generator.PageLength {
				t.Fatalf("len = %d, want %d", len(first), generator.PageLength)
			}
			ok, reason := generator.ValidatePage(first)
			if !ok {
				t.Fatalf("ValidatePage failed: %s", reason)
			}
		})
	}
}

func TestAddressToPageDiffersAcrossAddresses(t *testing.T) {
	a := generator.AddressToPage("deadbeef")
	b := generator.AddressToPage("deadbeee")

	if a == b {
		t.Fatal("distinct addresses produced identical pages")
	}
}

func TestValidatePageLength(t *testing.T) {
	page := generator.AddressToPage("deadbeef")

	if ok, _ := generator.ValidatePage(page); !ok {
		t.Fatal("expected exact-length page to validate")
	}
	if ok, reason := generator.ValidatePage(page[:generator.PageLength-1]); ok {
		t.Fatal("expected 3199-length page to fail validation")
	} else if reason == "" {
		t.Fatal("expected a reason for the failure")
	}
	if ok, _ := generator.ValidatePage(page + "x"); ok {
		t.Fatal("expected 3201-length page to fail validation")
	}
}

func TestValidatePageAlphabet(t *testing.T) {
	page := generator.AddressToPage("deadbeef")
	tampered := []byte(page)
	tampered[42] = 'Z'

	ok, reason := generator.ValidatePage(string(tampered))
	if ok {
		t.Fatal("expected tampered page to fail validation")
	}
	if reason == "" {
		t.Fatal("expected a reason naming the bad character")
	}
}

func TestRandomAddressDeterministic(t *testing.T) {
	a1 := generator.RandomAddress()
	a2 := generator.RandomAddress()
	if a1 != a2 {
		t.Fatal("RandomAddress() without a seed should be canonical")
	}

	seeded1 := generator.RandomAddress('x', 'y')
	seeded2 := generator.RandomAddress('x', 'y')
	if seeded1 != seeded2 {
		t.Fatal("RandomAddress(seed) should be stable across calls")
	}
	if seeded1 == a1 {
		t.Fatal("seeded and unseeded addresses collided")
	}
}

func BenchmarkAddressToPage(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		generator.AddressToPage("deadbeef")
	}
}
