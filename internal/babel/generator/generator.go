// Package generator implements the pure address-to-page function at the
// heart of the Babel space: a keyed PRF over SHA-256 that turns any byte
// string into a deterministic 3200-symbol page.
package generator

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
)

// PageLength is the fixed length of every generated page, in code points.
const PageLength = 3200

// Alphabet is the fixed 29-symbol set every page character is drawn from:
// space, comma, period, then the 26 lowercase ASCII letters. It is
// documented, not runtime-configurable (spec §6).
var Alphabet = [...]byte{
	' ', ',', '.',
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n',
	'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
}

const alphabetSize = uint64(len(Alphabet))

// AddressToPage maps address to its deterministic 3200-character page.
// It is a total, pure function: the empty address and arbitrary non-hex
// byte strings are all valid input and never produce an error.
func AddressToPage(address string) string {
	addrBytes := []byte(address)
	buf := make([]byte, PageLength)
	for i := 0; i < PageLength; i++ {
		buf[i] = Alphabet[symbolIndex(addrBytes, i)]
	}
	return string(buf)
}

// symbolIndex computes A[v mod 29] for position i, where v is the first 8
// bytes of SHA-256(address || ":" || decimal_ascii(i)) read as a
// big-endian uint64.
func symbolIndex(addrBytes []byte, i int) uint64 {
	h := sha256.New()
	h.Write(addrBytes)
	h.Write([]byte{':'})
	h.Write([]byte(strconv.Itoa(i)))
	sum := h.Sum(nil)
	v := binary.BigEndian.Uint64(sum[:8])
	return v % alphabetSize
}

// alphabetSet is built once for O(1) membership checks in ValidatePage.
var alphabetSet = func() map[byte]struct{} {
	m := make(map[byte]struct{}, len(Alphabet))
	for _, b := range Alphabet {
		m[b] = struct{}{}
	}
	return m
}()

// ValidatePage checks that page has exactly PageLength characters and that
// every character lies in Alphabet. On failure it returns a human-readable
// reason; on success the reason is empty.
func ValidatePage(page string) (bool, string) {
	if len(page) != PageLength {
		return false, fmt.Sprintf("page length %d, want %d", len(page), PageLength)
	}
	for i := 0; i < len(page); i++ {
		if _, ok := alphabetSet[page[i]]; !ok {
			return false, fmt.Sprintf("invalid character at %d", i)
		}
	}
	return true, ""
}

// RandomAddress returns a deterministic address derived from seed. Called
// with no seed bytes it returns a fixed canonical address; called with the
// same seed twice it returns the same address both times.
func RandomAddress(seed ...byte) string {
	h := sha256.Sum256(append([]byte("babel-random-address-seed:"), seed...))
	return hex.EncodeToString(h[:])
}
