package resources

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/edsrzf/mmap-go"
)

// Corpus is an open, memory-mapped corpus file. Data stays valid until
// Close is called.
type Corpus struct {
	Path string
	Data []byte

	file   *os.File
	mapped mmap.MMap
}

// OpenCorpus
// Opens a corpus file read-only and maps it into memory. Empty files are
// legal and yield an empty Data slice without a mapping.
func OpenCorpus(path string) (*Corpus, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("resources: opening corpus: %w", err)
	}
	stat, statErr := file.Stat()
	if statErr != nil {
		file.Close()
		return nil, fmt.Errorf("resources: stat corpus: %w", statErr)
	}
	if stat.Size() == 0 {
		return &Corpus{Path: path, Data: []byte{}, file: file}, nil
	}
	mapped, mmapErr := mmap.Map(file, mmap.RDONLY, 0)
	if mmapErr != nil {
		file.Close()
		return nil, fmt.Errorf("resources: mmap corpus: %w", mmapErr)
	}
	return &Corpus{
		Path:   path,
		Data:   mapped,
		file:   file,
		mapped: mapped,
	}, nil
}

// Size returns the corpus size as a human-readable string.
func (corpus *Corpus) Size() string {
	return humanize.Bytes(uint64(len(corpus.Data)))
}

// Close unmaps and closes the underlying file.
func (corpus *Corpus) Close() error {
	if corpus.mapped != nil {
		if err := corpus.mapped.Unmap(); err != nil {
			corpus.file.Close()
			return err
		}
		corpus.mapped = nil
	}
	return corpus.file.Close()
}
