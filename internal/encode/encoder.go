package encode

import (
	"fmt"

	"github.com/mzhdanov/finsent/internal/model"
)

// Encoder turns records into fixed-length encoded examples: token ids
// framed by [CLS]/[SEP], truncated or right-padded to exactly MaxLength,
// with the attention mask marking real positions.
type Encoder struct {
	tok    Tokenizer
	maxLen int
}

// NewEncoder creates an encoder with a fixed target length. The length must
// leave room for the [CLS]/[SEP] frame around at least one content token.
func NewEncoder(tok Tokenizer, maxLen int) (*Encoder, error) {
	if tok == nil {
		return nil, fmt.Errorf("encoder requires a tokenizer")
	}
	if maxLen < 3 {
		return nil, fmt.Errorf("max length %d too small (need room for [CLS], one token and [SEP])", maxLen)
	}
	return &Encoder{tok: tok, maxLen: maxLen}, nil
}

// MaxLength returns the fixed target length.
func (e *Encoder) MaxLength() int {
	return e.maxLen
}

// EncodeRecord encodes one record. The raw text is not carried into the
// result.
func (e *Encoder) EncodeRecord(rec model.Record) (model.EncodedExample, error) {
	ids, err := e.frame(rec.Text)
	if err != nil {
		return model.EncodedExample{}, err
	}

	sp := e.tok.Specials()
	inputIDs := make([]int, e.maxLen)
	mask := make([]int, e.maxLen)
	for i := range inputIDs {
		if i < len(ids) {
			inputIDs[i] = ids[i]
			mask[i] = 1
		} else {
			inputIDs[i] = sp.Pad
		}
	}

	return model.EncodedExample{
		InputIDs:      inputIDs,
		TokenTypeIDs:  make([]int, e.maxLen), // single-segment input
		AttentionMask: mask,
		Label:         rec.Label,
	}, nil
}

// EncodePartition encodes every record of a partition into one set.
func (e *Encoder) EncodePartition(p model.Partition, records []model.Record) (*model.EncodedSet, error) {
	set := &model.EncodedSet{
		Partition: p,
		MaxLength: e.maxLen,
		Examples:  make([]model.EncodedExample, 0, len(records)),
	}
	for i, rec := range records {
		ex, err := e.EncodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("encode %s record %d: %w", p, i, err)
		}
		set.Examples = append(set.Examples, ex)
	}
	return set, nil
}

// EncodeText encodes free text without padding, for single-example
// inference. The attention mask is all ones.
func (e *Encoder) EncodeText(text string) (model.EncodedExample, error) {
	ids, err := e.frame(text)
	if err != nil {
		return model.EncodedExample{}, err
	}

	mask := make([]int, len(ids))
	for i := range mask {
		mask[i] = 1
	}
	return model.EncodedExample{
		InputIDs:      ids,
		TokenTypeIDs:  make([]int, len(ids)),
		AttentionMask: mask,
	}, nil
}

// frame tokenizes text and wraps it as [CLS] ids... [SEP], truncating to
// the target length while keeping the trailing [SEP].
func (e *Encoder) frame(text string) ([]int, error) {
	ids, err := e.tok.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	sp := e.tok.Specials()
	framed := make([]int, 0, len(ids)+2)
	framed = append(framed, sp.Cls)
	framed = append(framed, ids...)
	framed = append(framed, sp.Sep)

	if len(framed) > e.maxLen {
		framed = framed[:e.maxLen]
		framed[e.maxLen-1] = sp.Sep
	}
	return framed, nil
}
