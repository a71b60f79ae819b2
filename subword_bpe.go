// Package subword_bpe learns a subword vocabulary from a word-frequency
// index using byte pair encoding, and encodes and decodes text against the
// learned token list. Corpus normalization and token-list persistence are
// the caller's responsibility; see the resources package and the command
// under cmd/subword_bpe.
package subword_bpe

import (
	"errors"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

const ENCODER_LRU_SZ = 65536

// UnknownToken is the reserved sentinel emitted when no learned token
// prefixes the remaining portion of a word. It is never a legal learned
// token; Trainer.Learn rejects any corpus that could produce it.
const UnknownToken = "[UNK]"

var ErrNoTokens = errors.New("subword_bpe: empty token list")

// Encoder segments normalized text into learned subword tokens by greedy
// longest-prefix matching over a length-descending token list. The token
// list is immutable after construction, so an Encoder may be shared across
// goroutines; only the cache statistics counters are unsynchronized.
type Encoder struct {
	// Tokens is the learned token list, stable-sorted by descending
	// length. Scan order is the whole matching policy: the first token
	// that prefixes the remaining suffix wins.
	Tokens    []string
	cache     *lru.ARCCache
	LruHits   int
	LruMisses int
}

// NewEncoder
// Returns an Encoder over the given learned token list. The list is
// defensively copied and re-sorted by descending length (stable, so
// equal-length tokens keep their stored order); blank entries from a
// hand-edited token file are dropped.
func NewEncoder(tokens []string) (*Encoder, error) {
	owned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) > 0 {
			owned = append(owned, token)
		}
	}
	if len(owned) == 0 {
		return nil, ErrNoTokens
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return len(owned[i]) > len(owned[j])
	})
	cache, err := lru.NewARC(ENCODER_LRU_SZ)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		Tokens: owned,
		cache:  cache,
	}, nil
}

// matchPrefix returns the first token in scan order that is a literal
// prefix of the suffix, or UnknownToken when nothing matches.
func (encoder *Encoder) matchPrefix(suffix string) string {
	for _, token := range encoder.Tokens {
		if strings.HasPrefix(suffix, token) {
			return token
		}
	}
	return UnknownToken
}

// EncodeWord
// Segments one normalized word into learned tokens. The end-of-word marker
// is fused onto the word before matching, mirroring training. When no
// token matches the remaining suffix the sentinel is emitted and the rest
// of the word is abandoned; this is the defined degradation path, not an
// error.
func (encoder *Encoder) EncodeWord(word string) []string {
	if len(word) == 0 {
		return nil
	}
	word += EndOfWord
	if cached, ok := encoder.cache.Get(word); ok {
		encoder.LruHits++
		return cached.([]string)
	}
	encoder.LruMisses++
	encoded := make([]string, 0, 4)
	remaining := word
	for len(remaining) > 0 {
		token := encoder.matchPrefix(remaining)
		encoded = append(encoded, token)
		if token == UnknownToken {
			break
		}
		remaining = remaining[len(token):]
	}
	encoder.cache.Add(word, encoded)
	return encoded
}

// Encode
// Splits already-normalized text on whitespace and encodes each word in
// order. Word order is preserved; per-word token runs are concatenated.
func (encoder *Encoder) Encode(text string) []string {
	words := strings.Fields(text)
	encoded := make([]string, 0, len(words)*2)
	for _, word := range words {
		encoded = append(encoded, encoder.EncodeWord(word)...)
	}
	return encoded
}

// Decode
// Concatenates a token sequence and restores inter-word boundaries by
// rewriting each end-of-word marker as a space. Pure best-effort: tokens
// that never came from this vocabulary, the sentinel included, pass
// through as literal fragments. The trailing boundary space is trimmed so
// that Decode(Encode(w)) == w on fully covered input.
func Decode(tokens []string) string {
	joined := strings.Join(tokens, "")
	decoded := strings.ReplaceAll(joined, EndOfWord, " ")
	return strings.TrimSuffix(decoded, " ")
}
