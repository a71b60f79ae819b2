package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLine(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello, World!", "hello world"},
		{"it's a test.", "its a test"},
		{"ALL CAPS", "all caps"},
		{"  spaced   out  ", "  spaced   out  "},
		{"", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, NormalizeLine(test.input),
			"input: %q", test.input)
	}
}

func drain(nextWord func() *string) []string {
	words := make([]string, 0)
	for word := nextWord(); word != nil; word = nextWord() {
		words = append(words, *word)
	}
	return words
}

func TestWordIterator(t *testing.T) {
	reader := strings.NewReader("To be, or not to be:\nthat is the Question.\n")
	assert.Equal(t,
		[]string{"to", "be", "or", "not", "to", "be", "that", "is",
			"the", "question"},
		drain(WordIterator(reader)))
}

func TestWordIteratorEmpty(t *testing.T) {
	assert.Empty(t, drain(WordIterator(strings.NewReader(""))))
	assert.Empty(t, drain(WordIterator(strings.NewReader("!!! ...\n"))))
}

func TestSliceWordIterator(t *testing.T) {
	chunks := []string{"First sentence.", "", "Second one!"}
	assert.Equal(t,
		[]string{"first", "sentence", "second", "one"},
		drain(SliceWordIterator(chunks)))
}

func TestSegmentSentences(t *testing.T) {
	chunks, err := SegmentSentences("The cat sat. The dog ran.")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestCollectCorpusPaths(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(nested, 0755))
	filePath := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0644))
	require.NoError(t,
		os.WriteFile(filepath.Join(nested, "b.txt"), []byte("y"), 0644))
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, "skip.md"), []byte("z"), 0644))

	paths, err := CollectCorpusPaths(filePath)
	require.NoError(t, err)
	assert.Equal(t, []string{filePath}, paths)

	paths, err = CollectCorpusPaths(dir)
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	_, err = CollectCorpusPaths(t.TempDir())
	assert.Error(t, err)
}
