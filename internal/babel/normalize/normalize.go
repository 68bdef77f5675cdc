// Package normalize models the optional LLM-normalization hook spec.md
// §6 advertises as provider-configurable: a pure text transform the
// pipeline may run over a winning page without touching ranking. The hook
// itself is out of scope (its body is left to a provider); this package
// only pins the contract and ships one concrete, non-LLM example
// implementation grounded on the teacher's stemmer.
package normalize

import (
	"strings"

	"github.com/kljensen/snowball"
)

// Provider is the pure text transform the pipeline may call on a winning
// page. It must not fail: a provider that cannot normalize should return
// its input unchanged.
type Provider interface {
	Normalize(text, query string) string
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(text, query string) string

func (f ProviderFunc) Normalize(text, query string) string { return f(text, query) }

// None is a no-op provider: it returns text unchanged, and the pipeline
// substitutes it for a nil Provider. It exists so callers can pass a
// Provider value explicitly when they want to make the "no normalization
// configured" choice visible in code. Whether provenance.normalized is set
// depends on the pipeline's NormalizeEnabled option, not on the provider.
var None Provider = ProviderFunc(func(text, _ string) string { return text })

// Stemming is an example, non-LLM Provider: it stems every whitespace
// token of text with the same English Snowball stemmer the teacher uses
// for indexing (kljensen/snowball), which is deterministic and needs no
// external model call. Real deployments plug in an LLM-backed Provider
// with the same interface.
var Stemming Provider = ProviderFunc(func(text, _ string) string {
	fields := strings.Fields(text)
	out := make([]string, len(fields))
	for i, f := range fields {
		stemmed, err := snowball.Stem(f, "english", true)
		if err != nil {
			out[i] = f
			continue
		}
		out[i] = stemmed
	}
	return strings.Join(out, " ")
})
