package main

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

// The core trains on an already-normalized word stream; this file owns the
// normalization contract: punctuation stripped, lower-cased, whitespace
// split.

// Word characters follow the usual \w class, widened past ASCII so that
// accented corpora survive normalization.
var punctPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// NormalizeLine strips punctuation and lower-cases one line of raw text.
// Whitespace splitting is left to the word iterators below.
func NormalizeLine(line string) string {
	return strings.ToLower(punctPattern.ReplaceAllString(line, ""))
}

// WordIterator
// Returns an iterator over normalized words read line by line from the
// reader. Each invocation yields one word, or nil once the stream is
// exhausted.
func WordIterator(reader io.Reader) func() *string {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var pending []string
	return func() *string {
		for len(pending) == 0 {
			if !scanner.Scan() {
				return nil
			}
			pending = strings.Fields(NormalizeLine(scanner.Text()))
		}
		word := pending[0]
		pending = pending[1:]
		return &word
	}
}

// SliceWordIterator returns a word iterator over pre-segmented text
// chunks, normalizing each chunk as it goes.
func SliceWordIterator(chunks []string) func() *string {
	var pending []string
	idx := 0
	return func() *string {
		for len(pending) == 0 {
			if idx >= len(chunks) {
				return nil
			}
			pending = strings.Fields(NormalizeLine(chunks[idx]))
			idx++
		}
		word := pending[0]
		pending = pending[1:]
		return &word
	}
}

// SegmentSentences
// Splits raw corpus text into sentences before normalization, so that a
// hard-wrapped corpus doesn't carry line structure into the word stream.
func SegmentSentences(text string) ([]string, error) {
	doc, err := prose.NewDocument(
		text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithTokenization(false),
	)
	if err != nil {
		return nil, err
	}
	sentences := doc.Sentences()
	chunks := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		chunks = append(chunks, sentence.Text)
	}
	return chunks, nil
}
