package model

import "fmt"

// Label is the integer code of a sentiment class.
//
// The code assignment is load-bearing: it is baked into the fine-tuned
// model's classification head, so ingestion and inference must share this
// single mapping.
type Label int

const (
	LabelNeutral  Label = 0
	LabelPositive Label = 1
	LabelNegative Label = 2
)

// NumLabels is the number of sentiment classes.
const NumLabels = 3

var labelNames = [NumLabels]string{"neutral", "positive", "negative"}

// ParseLabel maps a label string to its code. An unrecognized label is an
// error, never a default class: silently misfiled labels would corrupt the
// training data undetected.
func ParseLabel(s string) (Label, error) {
	for i, name := range labelNames {
		if s == name {
			return Label(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sentiment label %q (expected one of: neutral, positive, negative)", s)
}

// String returns the label name for a code.
func (l Label) String() string {
	if !l.Valid() {
		return fmt.Sprintf("label(%d)", int(l))
	}
	return labelNames[l]
}

// Valid reports whether the code is one of the three classes.
func (l Label) Valid() bool {
	return l >= 0 && int(l) < NumLabels
}

// LabelNames returns the class names indexed by code.
func LabelNames() []string {
	names := make([]string, NumLabels)
	copy(names, labelNames[:])
	return names
}
