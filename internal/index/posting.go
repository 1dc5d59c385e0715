package index

// maxPositions bounds the per-posting position list. Counts keep accumulating
// past the cap; only positional data is truncated. Phrase and exclusion checks
// therefore scan raw content instead of positions, which keeps them exact for
// occurrences beyond the tenth at the cost of a full content scan.
const maxPositions = 10

// Posting records one term's occurrences within one document.
type Posting struct {
	Count     int   `json:"count"`
	Positions []int `json:"positions"`
}

// TermFrequency pairs a vocabulary term with its document frequency.
type TermFrequency struct {
	Term    string `json:"term"`
	DocFreq int    `json:"doc_freq"`
}
