package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/yargevad/filepathx"

	"github.com/corpustools/subword_bpe"
	"github.com/corpustools/subword_bpe/resources"
)

// CollectCorpusPaths resolves a corpus argument to a list of text files:
// a file path is used as-is, a directory is recursively globbed for
// `.txt` files.
func CollectCorpusPaths(corpusPath string) ([]string, error) {
	stat, err := os.Stat(corpusPath)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return []string{corpusPath}, nil
	}
	matches, globErr := filepathx.Glob(corpusPath + "/**/*.txt")
	if globErr != nil {
		return nil, globErr
	}
	if len(matches) == 0 {
		return nil, errors.New(
			fmt.Sprintf("%s does not contain any .txt files", corpusPath))
	}
	return matches, nil
}

func countCorpus(paths []string, sentences bool) (subword_bpe.WordCounter,
	error) {
	counter := make(subword_bpe.WordCounter)
	for _, path := range paths {
		corpus, err := resources.OpenCorpus(path)
		if err != nil {
			return nil, err
		}
		slog.Info("reading corpus", "path", path, "size", corpus.Size())
		if sentences {
			chunks, segErr := SegmentSentences(string(corpus.Data))
			if segErr != nil {
				corpus.Close()
				return nil, segErr
			}
			slog.Info("segmented corpus", "path", path,
				"sentences", humanize.Comma(int64(len(chunks))))
			nextWord := SliceWordIterator(chunks)
			for word := nextWord(); word != nil; word = nextWord() {
				counter.Add(*word)
			}
		} else {
			nextWord := WordIterator(bytes.NewReader(corpus.Data))
			for word := nextWord(); word != nil; word = nextWord() {
				counter.Add(*word)
			}
		}
		if closeErr := corpus.Close(); closeErr != nil {
			return nil, closeErr
		}
	}
	return counter, nil
}

func trainCmd() *cobra.Command {
	var operations int
	var output string
	var sentences bool
	cmd := &cobra.Command{
		Use:   "train <corpus>",
		Args:  cobra.ExactArgs(1),
		Short: "Learn a subword token list from a corpus",
		Long: "Learn a subword token list from a text file, or from all " +
			".txt files under a directory, and write it one token per line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := CollectCorpusPaths(args[0])
			if err != nil {
				return err
			}
			counter, countErr := countCorpus(paths, sentences)
			if countErr != nil {
				return countErr
			}
			slog.Info("word index built",
				"words", humanize.Comma(int64(len(counter))))
			trainer := &subword_bpe.Trainer{
				Operations: operations,
				Observer: func(round int, pair subword_bpe.SymbolPair,
					freq int) {
					slog.Debug("merge",
						"round", round,
						"left", pair.Left,
						"right", pair.Right,
						"freq", freq)
				},
			}
			result, learnErr := trainer.Learn(counter)
			if learnErr != nil {
				return learnErr
			}
			if result.Rounds < operations {
				slog.Warn("pairs exhausted before configured operations",
					"rounds", result.Rounds, "operations", operations)
			}
			if err = resources.WriteTokenList(output, result.Tokens); err != nil {
				return err
			}
			slog.Info("token list written",
				"path", output,
				"tokens", humanize.Comma(int64(len(result.Tokens))),
				"symbols", humanize.Comma(int64(result.Symbols.Cardinality())))
			return nil
		},
	}
	cmd.Flags().IntVarP(&operations, "operations", "n", 3000,
		"number of merge operations to run")
	cmd.Flags().StringVarP(&output, "output", "o", "bpe_tokens.txt",
		"path to write the learned token list to")
	cmd.Flags().BoolVar(&sentences, "sentences", false,
		"segment the corpus into sentences before word extraction")
	return cmd
}

func loadEncoder(tokenList string) (*subword_bpe.Encoder, error) {
	tokens, err := resources.ReadTokenList(tokenList)
	if err != nil {
		return nil, err
	}
	return subword_bpe.NewEncoder(tokens)
}

func encodeCmd() *cobra.Command {
	var tokenList string
	var binOut string
	cmd := &cobra.Command{
		Use:   "encode [text...]",
		Short: "Encode text into subword tokens",
		Long: "Encode already-written text into subword tokens using a " +
			"learned token list. With no arguments, reads lines " +
			"interactively.",
		RunE: func(cmd *cobra.Command, args []string) error {
			encoder, err := loadEncoder(tokenList)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				encoded := encoder.Encode(
					NormalizeLine(strings.Join(args, " ")))
				fmt.Println(strings.Join(encoded, " "))
				if binOut != "" {
					return writeBinary(binOut, encoder, encoded)
				}
				return nil
			}
			return encodeRepl(encoder)
		},
	}
	cmd.Flags().StringVarP(&tokenList, "tokens", "t", "bpe_tokens.txt",
		"path of the learned token list")
	cmd.Flags().StringVar(&binOut, "binary", "",
		"also write the encoded tokens as packed uint16 indices")
	return cmd
}

func writeBinary(path string, encoder *subword_bpe.Encoder,
	encoded []string) error {
	indexer, err := subword_bpe.NewTokenIndexer(encoder.Tokens)
	if err != nil {
		return err
	}
	bin, binErr := indexer.ToBin(encoded)
	if binErr != nil {
		return binErr
	}
	if err = os.WriteFile(path, *bin, 0644); err != nil {
		return err
	}
	slog.Info("binary tokens written", "path", path,
		"size", humanize.Bytes(uint64(len(*bin))))
	return nil
}

func decodeCmd() *cobra.Command {
	var tokenList string
	var binIn string
	cmd := &cobra.Command{
		Use:   "decode [token...]",
		Short: "Decode a subword token sequence back into text",
		RunE: func(cmd *cobra.Command, args []string) error {
			if binIn != "" {
				// Canonicalize through NewEncoder so indices line up
				// with what `encode --binary` wrote.
				encoder, err := loadEncoder(tokenList)
				if err != nil {
					return err
				}
				indexer, idxErr := subword_bpe.NewTokenIndexer(encoder.Tokens)
				if idxErr != nil {
					return idxErr
				}
				bin, readErr := os.ReadFile(binIn)
				if readErr != nil {
					return readErr
				}
				decoded, fromErr := indexer.FromBin(&bin)
				if fromErr != nil {
					return fromErr
				}
				fmt.Println(subword_bpe.Decode(decoded))
				return nil
			}
			if len(args) > 0 {
				fmt.Println(subword_bpe.Decode(args))
				return nil
			}
			return decodeRepl()
		},
	}
	cmd.Flags().StringVarP(&tokenList, "tokens", "t", "bpe_tokens.txt",
		"path of the learned token list (binary mode only)")
	cmd.Flags().StringVar(&binIn, "binary", "",
		"decode packed uint16 indices from this file instead of arguments")
	return cmd
}

// encodeRepl reads raw lines from stdin, normalizes and encodes each, and
// prints the token sequence alongside a piped-apart rendering of the
// matched tokens.
func encodeRepl(encoder *subword_bpe.Encoder) error {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(">>> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		encoded := encoder.Encode(NormalizeLine(strings.TrimRight(input,
			"\r\n")))
		fmt.Printf("%v\n", encoded)
		for _, token := range encoded {
			fmt.Printf("|%s", token)
		}
		fmt.Printf("\n")
	}
}

// decodeRepl reads whitespace-separated token sequences from stdin and
// prints the reconstructed text.
func decodeRepl() error {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(">>> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		tokens := strings.Fields(input)
		fmt.Println(subword_bpe.Decode(tokens))
	}
}

func NewCLI() *cobra.Command {
	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "subword_bpe",
		Short: "Byte pair encoding subword tokenizer",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SilenceUsage = true
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
				&slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"log every merge round")
	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(trainCmd(), encodeCmd(), decodeCmd())
	return rootCmd
}

func main() {
	if err := NewCLI().Execute(); err != nil {
		log.Fatal(err)
	}
}
