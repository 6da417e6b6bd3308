package model

// Record is one labeled sentence from the corpus.
type Record struct {
	Text  string `json:"text"`
	Label Label  `json:"label"`
}

// Partition identifies one of the three dataset splits.
type Partition string

const (
	PartitionTrain      Partition = "train"
	PartitionValidation Partition = "validation"
	PartitionTest       Partition = "test"
)

// Dataset holds the three partitions produced by a stratified split.
// Partitions are immutable snapshots: they are derived once per run and
// never re-derived or mutated afterwards.
type Dataset struct {
	Train      []Record `json:"train"`
	Validation []Record `json:"validation"`
	Test       []Record `json:"test"`
}

// Size returns the total number of records across all partitions.
func (d *Dataset) Size() int {
	return len(d.Train) + len(d.Validation) + len(d.Test)
}

// ByPartition returns the records of the named partition.
func (d *Dataset) ByPartition(p Partition) []Record {
	switch p {
	case PartitionTrain:
		return d.Train
	case PartitionValidation:
		return d.Validation
	case PartitionTest:
		return d.Test
	}
	return nil
}
