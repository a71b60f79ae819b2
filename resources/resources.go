// Package resources persists training artifacts. The token-list file
// (plain text, one learned token per line, ordered by descending length)
// is the sole contract between training and encode/decode. The package
// also provides memory-mapped read access to corpus files.
package resources

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// WriteTokenList
// Writes the learned token list to path, one token per line, in the order
// given. The trainer hands the list over already sorted by descending
// length; this function does not reorder.
func WriteTokenList(path string, tokens []string) error {
	data := strings.Join(tokens, "\n")
	if len(tokens) > 0 {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("resources: writing token list: %w", err)
	}
	return nil
}

// ReadTokenList
// Reads a token-list file back into memory. Blank lines are skipped, and
// stored order is preserved; the encoder depends on it.
func ReadTokenList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("resources: opening token list: %w", err)
	}
	defer file.Close()
	tokens := make([]string, 0, 4096)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > 0 {
			tokens = append(tokens, line)
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, fmt.Errorf("resources: reading token list: %w", scanErr)
	}
	return tokens, nil
}
