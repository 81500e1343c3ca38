package app

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FilePreview is the loaded content of the currently selected file.
type FilePreview struct {
	Content string
	Lines   int
}

// Session owns the authoritative in-memory state for one run of the client:
// the index summary, the question/answer pipeline and its history, and the
// file browser sub-state. Queries are only accepted while the summary status
// is indexed.
//
// All methods must be called from a single goroutine (the UI event loop).
// Async work hands results back through the Apply* methods, which drop
// anything superseded by a newer request: index epochs guard status
// summaries, preview generations guard file content.
type Session struct {
	Summary IndexSummary

	// Question is the free-text draft. It is intentionally left as typed
	// after a successful submission.
	Question string

	// Answer and Results mirror the most recent query for immediate
	// display; History keeps every completed query, most recent first.
	Answer  string
	Results []Snippet
	History []ChatEntry

	Files        []string
	SelectedFile string
	Preview      *FilePreview
	FileLoading  bool
	FileError    string

	indexEpoch int
	previewGen int
}

func NewSession() *Session {
	return &Session{Summary: IndexSummary{Status: StatusNotIndexed}}
}

// Epoch returns the current indexing epoch. Status fetches issued now must
// present this value to ApplySummary.
func (s *Session) Epoch() int { return s.indexEpoch }

// StartIndex validates the requested path and opens a new indexing epoch,
// obsoleting any in-flight status poll. The file browser sub-state is
// cleared; history is kept. Returns the trimmed path and the new epoch.
func (s *Session) StartIndex(path string) (string, int, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", 0, &ValidationError{Reason: "repository path is required"}
	}
	s.indexEpoch++
	s.previewGen++
	s.Files = nil
	s.SelectedFile = ""
	s.Preview = nil
	s.FileError = ""
	s.FileLoading = false
	return path, s.indexEpoch, nil
}

// ApplySummary replaces the index summary wholesale. Summaries tagged with a
// superseded epoch are dropped. becameIndexed reports a transition into the
// indexed state, which is the caller's cue to refresh the file list.
func (s *Session) ApplySummary(epoch int, sum IndexSummary) (applied, becameIndexed bool) {
	if epoch != s.indexEpoch {
		return false, false
	}
	was := s.Summary.Status
	s.Summary = sum
	return true, sum.Status == StatusIndexed && was != StatusIndexed
}

// ApplyStatusError records a failed index request or status fetch. Stale
// epochs are dropped, same as ApplySummary.
func (s *Session) ApplyStatusError(epoch int, err error) bool {
	if epoch != s.indexEpoch {
		return false
	}
	s.Summary = IndexSummary{Status: StatusError, Detail: err.Error()}
	return true
}

// BeginQuestion validates the current draft and the index state, returning
// the trimmed question to submit. No session state changes here; the draft
// stays as typed either way.
func (s *Session) BeginQuestion() (string, error) {
	q := strings.TrimSpace(s.Question)
	if q == "" {
		return "", &ValidationError{Reason: "question is required"}
	}
	if s.Summary.Status != StatusIndexed {
		return "", &NotReadyError{Status: s.Summary.Status}
	}
	return q, nil
}

// ApplyAnswer records a completed query: the latest answer and results, plus
// a new history entry prepended to the transcript. Entries are never removed
// or reordered afterwards.
func (s *Session) ApplyAnswer(question string, resp QueryResponse) ChatEntry {
	entry := ChatEntry{
		ID:        uuid.NewString(),
		Question:  question,
		Answer:    resp.Answer,
		Results:   resp.Results,
		CreatedAt: time.Now(),
	}
	s.Answer = resp.Answer
	s.Results = resp.Results
	s.History = append([]ChatEntry{entry}, s.History...)
	return entry
}

// SetFiles replaces the indexed file list wholesale.
func (s *Session) SetFiles(files []string) {
	s.Files = files
}

// SelectFile optimistically selects a file for preview and opens a new
// preview generation. Any previous preview or error is cleared immediately;
// a response from an older generation will be dropped.
func (s *Session) SelectFile(path string) int {
	s.SelectedFile = path
	s.Preview = nil
	s.FileError = ""
	s.FileLoading = true
	s.previewGen++
	return s.previewGen
}

// ApplyPreview stores fetched file content unless a newer selection has
// superseded the request.
func (s *Session) ApplyPreview(gen int, resp FileContentResponse) bool {
	if gen != s.previewGen {
		return false
	}
	s.Preview = &FilePreview{Content: resp.Content, Lines: resp.Lines}
	s.FileLoading = false
	return true
}

// ApplyPreviewError records a failed preview fetch. Preview errors never
// touch the index status.
func (s *Session) ApplyPreviewError(gen int, err error) bool {
	if gen != s.previewGen {
		return false
	}
	s.Preview = nil
	s.FileError = err.Error()
	s.FileLoading = false
	return true
}

// AllSnippets flattens every history entry's results in history order
// (most recent first), the input the risk aggregator works over.
func (s *Session) AllSnippets() []Snippet {
	var out []Snippet
	for _, entry := range s.History {
		out = append(out, entry.Results...)
	}
	return out
}
