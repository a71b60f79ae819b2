package subword_bpe

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const TokenSize = 2

// TokenIndexer maps between token strings and their uint16 positions in
// the stored token list, for compact binary persistence of encoded output.
// The sentinel occupies the index one past the end of the list.
type TokenIndexer struct {
	tokens []string
	ids    map[string]uint16
}

// NewTokenIndexer builds an indexer over a stored token list. The list
// must fit in uint16 index space with one slot left for the sentinel.
func NewTokenIndexer(tokens []string) (*TokenIndexer, error) {
	if len(tokens) > 1<<16-1 {
		return nil, fmt.Errorf(
			"subword_bpe: %d tokens exceed 16-bit index space", len(tokens))
	}
	ids := make(map[string]uint16, len(tokens)+1)
	for idx, token := range tokens {
		ids[token] = uint16(idx)
	}
	ids[UnknownToken] = uint16(len(tokens))
	return &TokenIndexer{tokens: tokens, ids: ids}, nil
}

// ToBin serializes an encoded token sequence as little-endian uint16
// indices into the token list.
func (indexer *TokenIndexer) ToBin(encoded []string) (*[]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(encoded)*TokenSize))
	for idx := range encoded {
		id, ok := indexer.ids[encoded[idx]]
		if !ok {
			return nil, fmt.Errorf(
				"subword_bpe: token %q not in the stored list", encoded[idx])
		}
		binary.Write(buf, binary.LittleEndian, id)
	}
	byt := buf.Bytes()
	return &byt, nil
}

// FromBin deserializes little-endian uint16 indices back into the token
// strings they stand for.
func (indexer *TokenIndexer) FromBin(bin *[]byte) ([]string, error) {
	decoded := make([]string, 0, len(*bin)/TokenSize)
	buf := bytes.NewReader(*bin)
	for {
		var id uint16
		if err := binary.Read(buf, binary.LittleEndian, &id); err != nil {
			break
		}
		if int(id) == len(indexer.tokens) {
			decoded = append(decoded, UnknownToken)
		} else if int(id) > len(indexer.tokens) {
			return nil, fmt.Errorf(
				"subword_bpe: token index %d out of range", id)
		} else {
			decoded = append(decoded, indexer.tokens[id])
		}
	}
	return decoded, nil
}
