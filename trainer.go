package subword_bpe

import (
	"errors"
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set"
)

// EndOfWord is the synthetic marker fused onto the final character of every
// word before training, so that word boundaries stay visible to the merge
// loop and to the encoder.
const EndOfWord = "</w>"

var (
	ErrEmptyVocabulary = errors.New("subword_bpe: no words to train on")
)

// SymbolPair is an ordered pair of adjacent symbols inside some word,
// considered as a merge candidate.
type SymbolPair struct {
	Left  string
	Right string
}

// Fused returns the symbol produced by merging the pair.
func (pair SymbolPair) Fused() string {
	return pair.Left + pair.Right
}

// WordEntry is a word's current symbol sequence plus its corpus frequency.
// Entries are addressed by their position in the vocabulary slice; that
// position never changes once training starts, and only Symbols is ever
// rewritten.
type WordEntry struct {
	Symbols []string
	Freq    int
}

// WordCounter accumulates occurrence counts for an already-normalized word
// stream. Normalization (case folding, punctuation stripping, whitespace
// splitting) is the caller's contract.
type WordCounter map[string]int

func (counter WordCounter) Add(word string) {
	if len(word) > 0 {
		counter[word]++
	}
}

// CountWords
// Drains a word iterator in the WordSplitter style: nextWord returns one
// word per invocation and nil once the stream is exhausted.
func CountWords(nextWord func() *string) WordCounter {
	counter := make(WordCounter)
	for {
		word := nextWord()
		if word == nil {
			break
		}
		counter.Add(*word)
	}
	return counter
}

// pairStats holds one training round's aggregate pair frequencies along
// with the pair index: for each pair, the word indices that contain it and
// how many times it occurs there. The index is what lets a merge round
// touch only the entries it has to.
type pairStats struct {
	freqs   map[SymbolPair]int
	indices map[SymbolPair]map[int]int
}

// collectStats scans every entry's symbol sequence once, emitting each
// adjacent pair weighted by the entry's frequency. Recomputed fresh every
// round, as a merge changes adjacencies inside any word it touches.
func collectStats(entries []WordEntry) pairStats {
	stats := pairStats{
		freqs:   make(map[SymbolPair]int),
		indices: make(map[SymbolPair]map[int]int),
	}
	for idx := range entries {
		symbols := entries[idx].Symbols
		for at := 0; at+1 < len(symbols); at++ {
			pair := SymbolPair{symbols[at], symbols[at+1]}
			stats.freqs[pair] += entries[idx].Freq
			wordCounts, ok := stats.indices[pair]
			if !ok {
				wordCounts = make(map[int]int)
				stats.indices[pair] = wordCounts
			}
			wordCounts[idx]++
		}
	}
	return stats
}

// bestPair returns the winning pair under an explicit deterministic
// comparator: aggregate frequency descending, then Left ascending, then
// Right ascending. Returns false when no pairs remain.
func (stats pairStats) bestPair() (SymbolPair, int, bool) {
	var best SymbolPair
	bestFreq := -1
	for pair, freq := range stats.freqs {
		if freq > bestFreq {
			best, bestFreq = pair, freq
		} else if freq == bestFreq {
			if pair.Left < best.Left ||
				(pair.Left == best.Left && pair.Right < best.Right) {
				best = pair
			}
		}
	}
	return best, bestFreq, bestFreq >= 0
}

// splitWord explodes a word into single-rune symbols, fusing EndOfWord onto
// the last one. "word" becomes [w o r d</w>].
func splitWord(word string) []string {
	runes := []rune(word)
	symbols := make([]string, len(runes))
	for idx, r := range runes {
		symbols[idx] = string(r)
	}
	symbols[len(symbols)-1] += EndOfWord
	return symbols
}

// newVocabulary builds the ordered word-entry table from a frequency
// counter. Entries are ordered by frequency descending, then by the word
// itself, so that enumeration order is fixed across runs. The resulting
// slice positions are the stable word indices used by the pair index.
func newVocabulary(counter WordCounter) []WordEntry {
	words := make([]string, 0, len(counter))
	for word := range counter {
		if len(word) > 0 {
			words = append(words, word)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if counter[words[i]] != counter[words[j]] {
			return counter[words[i]] > counter[words[j]]
		}
		return words[i] < words[j]
	})
	entries := make([]WordEntry, len(words))
	for idx, word := range words {
		entries[idx] = WordEntry{
			Symbols: splitWord(word),
			Freq:    counter[word],
		}
	}
	return entries
}

// pos finds the index of the first occurrence of seek in word past index i.
func pos(word []string, seek string, i int) int {
	for j, v := range word[i:] {
		if seek == v {
			return j + i
		}
	}
	return -1
}

// mergePair rewrites every entry named by the pair-index key set, fusing
// each non-overlapping adjacent (Left, Right) occurrence into one symbol.
// Matching is on whole symbols, so a fused unit never swallows material
// that merely looks like Left or Right as a substring of a larger symbol.
// Entries outside wordIdxs are untouched; frequencies never change.
func mergePair(entries []WordEntry, pair SymbolPair, wordIdxs map[int]int) {
	fused := pair.Fused()
	for idx := range wordIdxs {
		word := entries[idx].Symbols
		newWord := make([]string, 0, len(word))
		for i := 0; i < len(word); {
			j := pos(word, pair.Left, i)
			if j == -1 {
				newWord = append(newWord, word[i:]...)
				break
			}
			newWord = append(newWord, word[i:j]...)
			i = j
			if word[i] == pair.Left && i < len(word)-1 &&
				word[i+1] == pair.Right {
				newWord = append(newWord, fused)
				i += 2
			} else {
				newWord = append(newWord, word[i])
				i += 1
			}
		}
		entries[idx].Symbols = newWord
	}
}

// TrainObserver is invoked once per completed merge round. The core keeps
// no logger of its own; callers wanting progress reporting inject one.
type TrainObserver func(round int, pair SymbolPair, freq int)

// Trainer runs the BPE merge loop for a fixed number of operations.
type Trainer struct {
	// Operations is the number of merge rounds to attempt.
	Operations int
	// Observer, when non-nil, receives one callback per merge round.
	Observer TrainObserver
}

// TrainResult carries the learned vocabulary artifact plus the final state
// of the word table, for inspection and statistics.
type TrainResult struct {
	// Tokens is the learned token list, stable-sorted by descending
	// character length. This ordering is what the encoder's greedy prefix
	// scan depends on.
	Tokens []string
	// Rounds is the number of merges actually performed; it is less than
	// the configured operation count only when pairs ran out early.
	Rounds int
	// Entries is the word table after the final round. Positions and
	// frequencies are unchanged from initialization.
	Entries []WordEntry
	// Symbols is the set of every symbol that existed during training,
	// initial characters and fused units alike.
	Symbols mapset.Set
}

// Learn
// Runs the training loop over the given word frequencies: each round it
// recomputes pair statistics, picks the winning pair, rewrites the entries
// that contain it, and records the fused symbol as a learned token. Stops
// early, without error, if no adjacent pairs remain before the configured
// operation count is reached.
func (trainer *Trainer) Learn(counter WordCounter) (*TrainResult, error) {
	entries := newVocabulary(counter)
	if len(entries) == 0 {
		return nil, ErrEmptyVocabulary
	}
	symbols := mapset.NewSet()
	for idx := range entries {
		for _, symbol := range entries[idx].Symbols {
			symbols.Add(symbol)
		}
	}
	if symbols.Contains(UnknownToken) {
		return nil, fmt.Errorf(
			"subword_bpe: corpus contains the reserved symbol %q",
			UnknownToken)
	}

	tokens := make([]string, 0, trainer.Operations)
	rounds := 0
	for round := 0; round < trainer.Operations; round++ {
		stats := collectStats(entries)
		pair, freq, ok := stats.bestPair()
		if !ok {
			// Every word has collapsed into a single symbol.
			break
		}
		fused := pair.Fused()
		if fused == UnknownToken {
			return nil, fmt.Errorf(
				"subword_bpe: merge produced the reserved token %q",
				UnknownToken)
		}
		mergePair(entries, pair, stats.indices[pair])
		tokens = append(tokens, fused)
		symbols.Add(fused)
		rounds++
		if trainer.Observer != nil {
			trainer.Observer(round, pair, freq)
		}
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		return len(tokens[i]) > len(tokens[j])
	})
	return &TrainResult{
		Tokens:  tokens,
		Rounds:  rounds,
		Entries: entries,
		Symbols: symbols,
	}, nil
}
