package tokenize

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/mzhdanov/finsent/internal/encode"
)

// Special token names in BERT vocabularies.
const (
	PadToken = "[PAD]"
	UnkToken = "[UNK]"
	ClsToken = "[CLS]"
	SepToken = "[SEP]"
)

// subwordPrefix marks a piece that continues the previous one.
const subwordPrefix = "##"

// maxWordChars bounds greedy matching; words longer than this map to [UNK].
const maxWordChars = 100

// WordPiece tokenizes text with the greedy longest-match-first subword
// algorithm over a fixed vocabulary file. It implements encode.Tokenizer.
type WordPiece struct {
	vocab     map[string]int
	vocabInv  map[int]string
	specials  encode.Specials
	unkID     int
	lowercase bool
}

// Load reads a vocabulary file (one token per line, id = line number) and
// builds a tokenizer. The four special tokens must be present.
func Load(path string, lowercase bool) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer func() { _ = f.Close() }()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r\n"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}

	wp, err := New(tokens, lowercase)
	if err != nil {
		return nil, fmt.Errorf("vocab %s: %w", path, err)
	}
	return wp, nil
}

// New builds a tokenizer from an in-memory vocabulary.
func New(tokens []string, lowercase bool) (*WordPiece, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}

	vocab := make(map[string]int, len(tokens))
	vocabInv := make(map[int]string, len(tokens))
	for id, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, dup := vocab[tok]; dup {
			return nil, fmt.Errorf("duplicate vocabulary token %q", tok)
		}
		vocab[tok] = id
		vocabInv[id] = tok
	}

	ids := make(map[string]int, 4)
	for _, name := range []string{PadToken, UnkToken, ClsToken, SepToken} {
		id, ok := vocab[name]
		if !ok {
			return nil, fmt.Errorf("vocabulary missing special token %s", name)
		}
		ids[name] = id
	}

	return &WordPiece{
		vocab:    vocab,
		vocabInv: vocabInv,
		specials: encode.Specials{
			Pad: ids[PadToken],
			Cls: ids[ClsToken],
			Sep: ids[SepToken],
		},
		unkID:     ids[UnkToken],
		lowercase: lowercase,
	}, nil
}

// Specials returns the reserved ids the encoder needs.
func (w *WordPiece) Specials() encode.Specials {
	return w.specials
}

// VocabSize returns the number of vocabulary entries.
func (w *WordPiece) VocabSize() int {
	return len(w.vocab)
}

// Tokenize splits text into words and punctuation, then greedily matches
// the longest vocabulary piece at each position. Unmatched words become
// [UNK].
func (w *WordPiece) Tokenize(text string) ([]int, error) {
	var ids []int
	for _, word := range w.basicTokens(text) {
		ids = append(ids, w.tokenizeWord(word)...)
	}
	return ids, nil
}

// Decode maps ids back to a readable string, joining subword pieces.
func (w *WordPiece) Decode(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		tok, ok := w.vocabInv[id]
		if !ok {
			tok = UnkToken
		}
		if cont := strings.TrimPrefix(tok, subwordPrefix); cont != tok {
			b.WriteString(cont)
			continue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}
	return b.String()
}

// basicTokens lowercases (when configured), splits on whitespace and
// separates punctuation into standalone tokens.
func (w *WordPiece) basicTokens(text string) []string {
	if w.lowercase {
		text = strings.ToLower(text)
	}

	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// tokenizeWord applies greedy longest-match-first over one word.
func (w *WordPiece) tokenizeWord(word string) []int {
	runes := []rune(word)
	if len(runes) > maxWordChars {
		return []int{w.unkID}
	}

	var ids []int
	start := 0
	for start < len(runes) {
		end := len(runes)
		matched := -1
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = subwordPrefix + piece
			}
			if id, ok := w.vocab[piece]; ok {
				matched = id
				break
			}
			end--
		}
		if matched < 0 {
			// No piece matches: the whole word is unknown.
			return []int{w.unkID}
		}
		ids = append(ids, matched)
		start = end
	}
	return ids
}
