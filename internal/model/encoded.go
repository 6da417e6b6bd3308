package model

// EncodedExample is the unit consumed by training and evaluation: three
// same-length id sequences plus the label code. The raw sentence is
// deliberately not carried — the encoded form is self-sufficient for the
// training service.
type EncodedExample struct {
	InputIDs      []int `json:"input_ids"`
	TokenTypeIDs  []int `json:"token_type_ids"`
	AttentionMask []int `json:"attention_mask"`
	Label         Label `json:"label"`
}

// EncodedSet is one fully encoded partition.
type EncodedSet struct {
	Partition Partition        `json:"partition"`
	MaxLength int              `json:"max_length"`
	Examples  []EncodedExample `json:"examples"`
}

// Labels returns the label column of the set.
func (s *EncodedSet) Labels() []Label {
	labels := make([]Label, len(s.Examples))
	for i, ex := range s.Examples {
		labels[i] = ex.Label
	}
	return labels
}
