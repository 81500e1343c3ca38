package app

import "time"

// IndexStatus is the lifecycle state of the server-side indexing job.
type IndexStatus string

const (
	StatusNotIndexed IndexStatus = "not_indexed"
	StatusIndexing   IndexStatus = "indexing"
	StatusIndexed    IndexStatus = "indexed"
	StatusError      IndexStatus = "error"
)

// Known reports whether the service sent one of the four documented states.
func (s IndexStatus) Known() bool {
	switch s {
	case StatusNotIndexed, StatusIndexing, StatusIndexed, StatusError:
		return true
	}
	return false
}

// IndexSummary is the service's view of the current index, returned by both
// GET /status and POST /index. It is always replaced wholesale, never merged.
type IndexSummary struct {
	Status    IndexStatus `json:"status"`
	Repo      string      `json:"repo,omitempty"`
	Detail    string      `json:"detail,omitempty"`
	Files     *int        `json:"files,omitempty"`
	Chunks    *int        `json:"chunks,omitempty"`
	UpdatedAt string      `json:"updated_at,omitempty"`
}

type RiskAssessment struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Snippet is a scored excerpt of source code returned as evidence for an
// answer. Immutable once received.
type Snippet struct {
	File      string         `json:"file"`
	Content   string         `json:"content"`
	LineStart int            `json:"line_start"`
	LineEnd   int            `json:"line_end"`
	Risk      RiskAssessment `json:"risk"`
}

type QueryResponse struct {
	Answer  string    `json:"answer"`
	Results []Snippet `json:"results"`
}

type FileListResponse struct {
	Files []string `json:"files"`
}

type FileContentResponse struct {
	File    string `json:"file"`
	Content string `json:"content"`
	Lines   int    `json:"lines"`
}

// ChatEntry is one question/answer/snippet-set unit retained in session
// history. Created once per completed query, never mutated afterwards.
type ChatEntry struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Results   []Snippet `json:"results"`
	CreatedAt time.Time `json:"created_at"`
}
