package app

import (
	"errors"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestStartIndexRejectsBlankPath(t *testing.T) {
	s := NewSession()
	for _, path := range []string{"", "   ", "\t"} {
		before := s.Epoch()
		_, _, err := s.StartIndex(path)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("StartIndex(%q) error = %v, want ValidationError", path, err)
		}
		if s.Epoch() != before {
			t.Fatalf("StartIndex(%q) moved the epoch on a validation failure", path)
		}
	}
}

func TestStartIndexTrimsPathAndBumpsEpoch(t *testing.T) {
	s := NewSession()
	path, epoch, err := s.StartIndex("  /work/repo  ")
	if err != nil {
		t.Fatalf("StartIndex: %v", err)
	}
	if path != "/work/repo" {
		t.Fatalf("path = %q, want trimmed", path)
	}
	if epoch != s.Epoch() || epoch != 1 {
		t.Fatalf("epoch = %d (session %d), want 1", epoch, s.Epoch())
	}
}

func TestStartIndexClearsBrowserStateKeepsHistory(t *testing.T) {
	s := NewSession()
	s.Summary = IndexSummary{Status: StatusIndexed}
	s.Question = "what does main do"
	q, err := s.BeginQuestion()
	if err != nil {
		t.Fatalf("BeginQuestion: %v", err)
	}
	s.ApplyAnswer(q, QueryResponse{Answer: "it runs"})

	s.SetFiles([]string{"main.go"})
	gen := s.SelectFile("main.go")
	s.ApplyPreview(gen, FileContentResponse{File: "main.go", Content: "package main", Lines: 1})
	s.FileError = "old error"

	if _, _, err := s.StartIndex("/work/other"); err != nil {
		t.Fatalf("StartIndex: %v", err)
	}
	if s.Files != nil || s.SelectedFile != "" || s.Preview != nil || s.FileError != "" || s.FileLoading {
		t.Fatalf("browser state not cleared: %+v", s)
	}
	if len(s.History) != 1 {
		t.Fatalf("history length = %d, want 1 preserved entry", len(s.History))
	}
}

func TestApplySummaryDropsStaleEpoch(t *testing.T) {
	s := NewSession()
	_, old, _ := s.StartIndex("/a")
	if _, _, err := s.StartIndex("/b"); err != nil {
		t.Fatalf("StartIndex: %v", err)
	}
	applied, _ := s.ApplySummary(old, IndexSummary{Status: StatusIndexed})
	if applied {
		t.Fatal("summary from a superseded epoch was applied")
	}
	if s.Summary.Status == StatusIndexed {
		t.Fatal("stale summary leaked into the session")
	}
}

func TestApplySummaryReportsIndexedTransition(t *testing.T) {
	s := NewSession()
	_, epoch, _ := s.StartIndex("/work/repo")

	applied, became := s.ApplySummary(epoch, IndexSummary{Status: StatusIndexing, Repo: "/work/repo"})
	if !applied || became {
		t.Fatalf("indexing apply = (%v, %v), want (true, false)", applied, became)
	}

	done := IndexSummary{Status: StatusIndexed, Repo: "/work/repo", Files: intPtr(42), Chunks: intPtr(900)}
	applied, became = s.ApplySummary(epoch, done)
	if !applied || !became {
		t.Fatalf("indexed apply = (%v, %v), want (true, true)", applied, became)
	}
	if s.Summary.Files == nil || *s.Summary.Files != 42 {
		t.Fatalf("summary not replaced wholesale: %+v", s.Summary)
	}

	// A repeat of the terminal summary is applied but is not a transition.
	applied, became = s.ApplySummary(epoch, done)
	if !applied || became {
		t.Fatalf("repeat indexed apply = (%v, %v), want (true, false)", applied, became)
	}
}

func TestApplyStatusError(t *testing.T) {
	s := NewSession()
	_, epoch, _ := s.StartIndex("/work/repo")
	if !s.ApplyStatusError(epoch, errors.New("connection refused")) {
		t.Fatal("status error with current epoch was dropped")
	}
	if s.Summary.Status != StatusError || s.Summary.Detail != "connection refused" {
		t.Fatalf("summary = %+v", s.Summary)
	}
	if s.ApplyStatusError(epoch-1, errors.New("late failure")) {
		t.Fatal("status error from a superseded epoch was applied")
	}
}

func TestBeginQuestionValidation(t *testing.T) {
	s := NewSession()
	s.Summary = IndexSummary{Status: StatusIndexed}

	s.Question = "   "
	_, err := s.BeginQuestion()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("blank question error = %v, want ValidationError", err)
	}

	s.Question = "where is auth handled"
	s.Summary.Status = StatusIndexing
	_, err = s.BeginQuestion()
	var nerr *NotReadyError
	if !errors.As(err, &nerr) {
		t.Fatalf("not-indexed error = %v, want NotReadyError", err)
	}
	if nerr.Status != StatusIndexing {
		t.Fatalf("NotReadyError.Status = %s", nerr.Status)
	}
}

func TestBeginQuestionTrimsAndKeepsDraft(t *testing.T) {
	s := NewSession()
	s.Summary = IndexSummary{Status: StatusIndexed}
	s.Question = "  where is auth handled  "
	q, err := s.BeginQuestion()
	if err != nil {
		t.Fatalf("BeginQuestion: %v", err)
	}
	if q != "where is auth handled" {
		t.Fatalf("q = %q, want trimmed", q)
	}
	if s.Question != "  where is auth handled  " {
		t.Fatal("draft was modified by BeginQuestion")
	}
}

func TestApplyAnswerPrependsHistory(t *testing.T) {
	s := NewSession()
	s.Summary = IndexSummary{Status: StatusIndexed}

	first := s.ApplyAnswer("q1", QueryResponse{Answer: "a1", Results: []Snippet{snip("a.go", 2, "r")}})
	second := s.ApplyAnswer("q2", QueryResponse{Answer: "a2"})

	if len(s.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(s.History))
	}
	if s.History[0].ID != second.ID || s.History[1].ID != first.ID {
		t.Fatal("history is not most-recent-first")
	}
	if first.ID == second.ID || first.ID == "" {
		t.Fatalf("entry ids not unique: %q / %q", first.ID, second.ID)
	}
	if s.Answer != "a2" || len(s.Results) != 0 {
		t.Fatalf("latest answer not mirrored: %q / %d results", s.Answer, len(s.Results))
	}
}

func TestPreviewLastRequestWins(t *testing.T) {
	s := NewSession()
	genA := s.SelectFile("a.go")
	genB := s.SelectFile("b.go")

	if s.ApplyPreview(genA, FileContentResponse{File: "a.go", Content: "old", Lines: 1}) {
		t.Fatal("preview for a superseded selection was applied")
	}
	if s.Preview != nil || !s.FileLoading {
		t.Fatalf("stale preview disturbed the session: %+v", s)
	}

	if !s.ApplyPreview(genB, FileContentResponse{File: "b.go", Content: "new", Lines: 3}) {
		t.Fatal("preview for the current selection was dropped")
	}
	if s.Preview == nil || s.Preview.Content != "new" || s.Preview.Lines != 3 || s.FileLoading {
		t.Fatalf("preview not applied: %+v", s)
	}
}

func TestApplyPreviewErrorIsLocal(t *testing.T) {
	s := NewSession()
	s.Summary = IndexSummary{Status: StatusIndexed}
	gen := s.SelectFile("a.go")

	if !s.ApplyPreviewError(gen, errors.New("file not found")) {
		t.Fatal("preview error for the current selection was dropped")
	}
	if s.FileError != "file not found" || s.FileLoading || s.Preview != nil {
		t.Fatalf("preview error not recorded: %+v", s)
	}
	if s.Summary.Status != StatusIndexed {
		t.Fatal("preview error touched the index status")
	}

	if s.ApplyPreviewError(gen-1, errors.New("late failure")) {
		t.Fatal("stale preview error was applied")
	}
}

func TestAllSnippetsFlattensHistoryOrder(t *testing.T) {
	s := NewSession()
	s.ApplyAnswer("q1", QueryResponse{Results: []Snippet{snip("old.go", 1, "r")}})
	s.ApplyAnswer("q2", QueryResponse{Results: []Snippet{snip("new1.go", 2, "r"), snip("new2.go", 3, "r")}})

	all := s.AllSnippets()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].File != "new1.go" || all[1].File != "new2.go" || all[2].File != "old.go" {
		t.Fatalf("order = %s, %s, %s", all[0].File, all[1].File, all[2].File)
	}
}
