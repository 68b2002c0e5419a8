package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type DocumentType string

const (
	DocTypePolicy DocumentType = "policy"
	DocTypeRFP    DocumentType = "rfp"
	DocTypeSOP    DocumentType = "sop"
)

// Document is the ingestion-side record of a source file. AccessTags are the
// clearances required to see any chunk cut from it; an empty set is public.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Type        DocumentType   `json:"type"`
	AccessTags  []string       `json:"access_tags"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	ChunkCount  int            `json:"chunk_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Passage is a pre-embedding cut of document text produced by the chunker,
// carrying the structural label used for citation rendering.
type Passage struct {
	Text         string
	SectionTitle string
	PageNumber   int
}
