package subword_bpe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordsIterator(words []string) func() *string {
	idx := 0
	return func() *string {
		if idx >= len(words) {
			return nil
		}
		word := &words[idx]
		idx++
		return word
	}
}

func TestCountWords(t *testing.T) {
	counter := CountWords(wordsIterator(
		[]string{"the", "cat", "the", "", "the"}))
	assert.Equal(t, 3, counter["the"])
	assert.Equal(t, 1, counter["cat"])
	assert.NotContains(t, counter, "")
}

func TestSplitWord(t *testing.T) {
	assert.Equal(t, []string{"w", "o", "r", "d</w>"}, splitWord("word"))
	assert.Equal(t, []string{"a</w>"}, splitWord("a"))
}

func TestNewVocabularyOrdering(t *testing.T) {
	counter := WordCounter{"bat": 2, "ant": 5, "cow": 2}
	entries := newVocabulary(counter)
	require.Len(t, entries, 3)
	// Frequency descending, then lexicographic on ties.
	assert.Equal(t, 5, entries[0].Freq)
	assert.Equal(t, []string{"a", "n", "t</w>"}, entries[0].Symbols)
	assert.Equal(t, []string{"b", "a", "t</w>"}, entries[1].Symbols)
	assert.Equal(t, []string{"c", "o", "w</w>"}, entries[2].Symbols)
}

func TestCollectStats(t *testing.T) {
	entries := []WordEntry{
		{Symbols: []string{"a", "a", "b</w>"}, Freq: 3},
		{Symbols: []string{"a", "a", "a", "b</w>"}, Freq: 2},
	}
	stats := collectStats(entries)

	// (a, a) occurs once in word 0 and twice in word 1.
	assert.Equal(t, 3*1+2*2, stats.freqs[SymbolPair{"a", "a"}])
	assert.Equal(t, 3+2, stats.freqs[SymbolPair{"a", "b</w>"}])
	assert.Equal(t, map[int]int{0: 1, 1: 2},
		stats.indices[SymbolPair{"a", "a"}])
	assert.Equal(t, map[int]int{0: 1, 1: 1},
		stats.indices[SymbolPair{"a", "b</w>"}])
}

func TestBestPairTieBreak(t *testing.T) {
	stats := pairStats{freqs: map[SymbolPair]int{
		{"b", "c"}: 4,
		{"a", "z"}: 4,
		{"a", "b"}: 4,
		{"z", "z"}: 3,
	}}
	pair, freq, ok := stats.bestPair()
	require.True(t, ok)
	assert.Equal(t, 4, freq)
	assert.Equal(t, SymbolPair{"a", "b"}, pair)

	_, _, ok = pairStats{freqs: map[SymbolPair]int{}}.bestPair()
	assert.False(t, ok)
}

func TestMergePairRewritesInPlace(t *testing.T) {
	entries := []WordEntry{
		{Symbols: []string{"a", "a", "a", "b</w>"}, Freq: 2},
		{Symbols: []string{"a", "a", "c</w>"}, Freq: 1},
		{Symbols: []string{"x", "y</w>"}, Freq: 7},
	}
	stats := collectStats(entries)
	pair := SymbolPair{"a", "a"}
	mergePair(entries, pair, stats.indices[pair])

	// Non-overlapping fusion: three a's yield one fused pair plus a
	// leftover single.
	assert.Equal(t, []string{"aa", "a", "b</w>"}, entries[0].Symbols)
	assert.Equal(t, []string{"aa", "c</w>"}, entries[1].Symbols)
	// Entries outside the pair index key set are untouched.
	assert.Equal(t, []string{"x", "y</w>"}, entries[2].Symbols)
}

func TestMergePairBoundarySafe(t *testing.T) {
	// "bc" appears as a substring inside larger symbols, but (b, c) is
	// never an adjacent symbol pair; a merge must not fire.
	entries := []WordEntry{
		{Symbols: []string{"ab", "cd</w>"}, Freq: 1},
		{Symbols: []string{"a", "bc", "d</w>"}, Freq: 1},
	}
	stats := collectStats(entries)
	assert.NotContains(t, stats.freqs, SymbolPair{"b", "c"})

	// Even when handed a forged index entry, whole-symbol matching leaves
	// the false substring occurrences alone.
	mergePair(entries, SymbolPair{"b", "c"}, map[int]int{0: 1, 1: 1})
	assert.Equal(t, []string{"ab", "cd</w>"}, entries[0].Symbols)
	assert.Equal(t, []string{"a", "bc", "d</w>"}, entries[1].Symbols)
}

func TestLearnTrivialVocabulary(t *testing.T) {
	trainer := &Trainer{Operations: 1}
	result, err := trainer.Learn(WordCounter{"aa": 1, "bb": 1})
	require.NoError(t, err)
	// Both words offer a single pair with frequency 1; the tie goes to
	// the lexicographically smaller pair (a, a</w>).
	assert.Equal(t, []string{"aa</w>"}, result.Tokens)
	assert.Equal(t, 1, result.Rounds)
}

func TestLearnMergeCountBound(t *testing.T) {
	counter := WordCounter{"lower": 4, "lowest": 3, "newer": 2, "widest": 1}
	trainer := &Trainer{Operations: 5}
	result, err := trainer.Learn(counter)
	require.NoError(t, err)
	assert.Len(t, result.Tokens, 5)
	assert.Equal(t, 5, result.Rounds)
}

func TestLearnDeterminism(t *testing.T) {
	counter := WordCounter{
		"sea": 5, "she": 5, "sells": 3, "shells": 3, "shore": 2,
	}
	trainer := &Trainer{Operations: 12}
	first, err := trainer.Learn(counter)
	require.NoError(t, err)
	second, err := trainer.Learn(counter)
	require.NoError(t, err)
	assert.Equal(t, first.Tokens, second.Tokens)
	assert.Equal(t, first.Rounds, second.Rounds)
}

func TestLearnTokensSortedByLength(t *testing.T) {
	trainer := &Trainer{Operations: 20}
	result, err := trainer.Learn(WordCounter{"banana": 3, "bandana": 2})
	require.NoError(t, err)
	for idx := 1; idx < len(result.Tokens); idx++ {
		assert.GreaterOrEqual(t,
			len(result.Tokens[idx-1]), len(result.Tokens[idx]))
	}
}

func TestLearnWordIndexStability(t *testing.T) {
	counter := WordCounter{"alpha": 4, "beta": 2, "gamma": 2}
	entriesBefore := newVocabulary(counter)
	trainer := &Trainer{Operations: 50}
	result, err := trainer.Learn(counter)
	require.NoError(t, err)
	require.Len(t, result.Entries, len(entriesBefore))
	for idx := range result.Entries {
		assert.Equal(t, entriesBefore[idx].Freq, result.Entries[idx].Freq)
		// The entry still spells the same word.
		joinedBefore := ""
		for _, symbol := range entriesBefore[idx].Symbols {
			joinedBefore += symbol
		}
		joinedAfter := ""
		for _, symbol := range result.Entries[idx].Symbols {
			joinedAfter += symbol
		}
		assert.Equal(t, joinedBefore, joinedAfter)
	}
}

func TestLearnEarlyExhaustion(t *testing.T) {
	observed := 0
	trainer := &Trainer{
		Operations: 10,
		Observer: func(round int, pair SymbolPair, freq int) {
			observed++
		},
	}
	// One two-symbol word: a single merge collapses it, leaving nothing
	// to pair in later rounds.
	result, err := trainer.Learn(WordCounter{"ab": 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"ab</w>"}, result.Tokens)
	assert.Equal(t, 1, result.Rounds)
	assert.Equal(t, 1, observed)
}

func TestLearnEmptyVocabulary(t *testing.T) {
	trainer := &Trainer{Operations: 3}
	_, err := trainer.Learn(WordCounter{})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestLearnObserverSeesFrequencies(t *testing.T) {
	var pairs []SymbolPair
	var freqs []int
	trainer := &Trainer{
		Operations: 2,
		Observer: func(round int, pair SymbolPair, freq int) {
			pairs = append(pairs, pair)
			freqs = append(freqs, freq)
		},
	}
	_, err := trainer.Learn(WordCounter{"aaa": 3})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, SymbolPair{"a", "a"}, pairs[0])
	assert.Equal(t, 3, freqs[0])
	assert.Equal(t, SymbolPair{"aa", "a</w>"}, pairs[1])
	assert.Equal(t, 3, freqs[1])
}

func TestLearnSymbolsSet(t *testing.T) {
	trainer := &Trainer{Operations: 2}
	result, err := trainer.Learn(WordCounter{"ab": 2})
	require.NoError(t, err)
	assert.True(t, result.Symbols.Contains("a"))
	assert.True(t, result.Symbols.Contains("b</w>"))
	assert.True(t, result.Symbols.Contains("ab</w>"))
}
