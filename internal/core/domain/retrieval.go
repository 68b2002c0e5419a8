package domain

// RetrievalMethod tags which sub-retrieval contributed a candidate.
type RetrievalMethod string

const (
	MethodDense  RetrievalMethod = "dense"
	MethodSparse RetrievalMethod = "sparse"
)

// Chunk is the immutable unit of retrievable text. Chunks are produced by the
// ingestion worker and never mutated afterwards; replacing them requires a
// full corpus refresh.
type Chunk struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	Position     int       `json:"position"`
	Text         string    `json:"text"`
	SectionTitle string    `json:"section_title"`
	PageNumber   int       `json:"page_number,omitempty"`
	Embedding    []float32 `json:"-"`
	AccessTags   []string  `json:"access_tags"`
}

// CandidateResult is the output of a single-index query: a chunk reference
// with the index's raw score and its 1-based rank within that index's list.
// Raw scores from the sparse and dense indexes live on incomparable scales
// and must never be compared directly; only ranks feed fusion.
type CandidateResult struct {
	ChunkID string
	Score   float64
	Rank    int
}

// FusedResult is one entry of the merged ranking. Score is the reciprocal
// rank fusion score, not a raw model score.
type FusedResult struct {
	ChunkID string
	Score   float64
	Methods []RetrievalMethod
	Rank    int
}

// RetrievedChunk is a fused result with its chunk resolved, handed to the
// synthesis step and to API responses.
type RetrievedChunk struct {
	Chunk   Chunk             `json:"chunk"`
	Score   float64           `json:"score"`
	Methods []RetrievalMethod `json:"methods"`
	Rank    int               `json:"rank"`
}

// TraceEntry records why one chunk made the final ranking. It carries no
// chunk text beyond what a citation pointer needs, so audit logs never
// accumulate document content.
type TraceEntry struct {
	ChunkID      string            `json:"chunk_id"`
	DocumentID   string            `json:"document_id"`
	SectionTitle string            `json:"section_title"`
	Score        float64           `json:"score"`
	Methods      []RetrievalMethod `json:"methods"`
	Rank         int               `json:"rank"`
}

// RetrievalTrace is the ordered audit record for one retrieval request.
type RetrievalTrace struct {
	RequestID string       `json:"request_id"`
	Entries   []TraceEntry `json:"entries"`
}

// Citation points at a chunk used to ground an answer.
type Citation struct {
	ChunkID      string `json:"chunk_id"`
	DocumentID   string `json:"document_id"`
	SectionTitle string `json:"section_title,omitempty"`
	PageNumber   int    `json:"page_number,omitempty"`
}

// Answer is the synthesis output. Refused is set when retrieval produced no
// authorized context and the generator was never invoked.
type Answer struct {
	Text      string           `json:"text"`
	Refused   bool             `json:"refused"`
	Citations []Citation       `json:"citations"`
	Sources   []RetrievedChunk `json:"sources"`
}
