package encode

// Specials are the reserved token ids the encoder needs to frame and pad
// a sequence. Everything else about the vocabulary belongs to the tokenizer.
type Specials struct {
	Pad int
	Cls int
	Sep int
}

// Tokenizer converts raw text into token ids. The vocabulary and subword
// algorithm are the implementation's concern; the encoder only consumes ids.
type Tokenizer interface {
	Tokenize(text string) ([]int, error)
	Specials() Specials
}
