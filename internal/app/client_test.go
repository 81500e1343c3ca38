package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/status" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(IndexSummary{
			Status: StatusIndexed,
			Repo:   "/work/repo",
			Files:  intPtr(42),
			Chunks: intPtr(900),
		})
	}))
	defer srv.Close()

	sum, err := NewClient(srv.URL, time.Second).Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if sum.Status != StatusIndexed || sum.Repo != "/work/repo" || *sum.Files != 42 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestClientStatusNormalizesUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"weird"}`))
	}))
	defer srv.Close()

	sum, err := NewClient(srv.URL, time.Second).Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if sum.Status != StatusError {
		t.Fatalf("status = %s, want error", sum.Status)
	}
	if sum.Detail != `unexpected status "weird"` {
		t.Fatalf("detail = %q", sum.Detail)
	}
}

func TestClientIndexPostsPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/index" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Path != "/work/repo" {
			t.Errorf("path = %q", req.Path)
		}
		json.NewEncoder(w).Encode(IndexSummary{Status: StatusIndexing, Repo: req.Path})
	}))
	defer srv.Close()

	sum, err := NewClient(srv.URL, time.Second).Index(context.Background(), "/work/repo")
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if sum.Status != StatusIndexing {
		t.Fatalf("status = %s", sum.Status)
	}
}

func TestClientAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ask-ai" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Question string `json:"question"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Question != "where is auth" {
			t.Errorf("question = %q", req.Question)
		}
		json.NewEncoder(w).Encode(QueryResponse{
			Answer:  "in middleware",
			Results: []Snippet{snip("auth.go", 3, "manual token check")},
		})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, time.Second).Ask(context.Background(), "where is auth")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Answer != "in middleware" || len(resp.Results) != 1 || resp.Results[0].Risk.Score != 3 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestClientFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(FileListResponse{Files: []string{"main.go", "auth.go"}})
	}))
	defer srv.Close()

	files, err := NewClient(srv.URL, time.Second).Files(context.Background())
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 2 || files[0] != "main.go" {
		t.Fatalf("files = %v", files)
	}
}

func TestClientFileContentEncodesPath(t *testing.T) {
	const path = "internal/sub dir/file name.go"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/file" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("path"); got != path {
			t.Errorf("query path = %q, want %q", got, path)
		}
		json.NewEncoder(w).Encode(FileContentResponse{File: path, Content: "package sub", Lines: 1})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, time.Second).FileContent(context.Background(), path)
	if err != nil {
		t.Fatalf("FileContent: %v", err)
	}
	if resp.File != path || resp.Lines != 1 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestClientErrorTextPrecedence(t *testing.T) {
	cases := []struct {
		name string
		code int
		body string
		want string
	}{
		{"detail wins", 422, `{"detail":"path does not exist","message":"ignored"}`, "path does not exist"},
		{"message fallback", 400, `{"message":"bad request body"}`, "bad request body"},
		{"status text fallback", 400, `{}`, "Bad Request"},
		{"unknown code fallback", 599, `not json`, "Request failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Status(context.Background())
			var terr *TransportError
			if !errors.As(err, &terr) {
				t.Fatalf("error = %v, want TransportError", err)
			}
			if terr.StatusCode != tc.code || terr.Detail != tc.want {
				t.Fatalf("got %d %q, want %d %q", terr.StatusCode, terr.Detail, tc.code, tc.want)
			}
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, time.Second).Status(context.Background())
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want TransportError", err)
	}
	if terr.StatusCode != 0 {
		t.Fatalf("StatusCode = %d, want 0 for a connection failure", terr.StatusCode)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", 0)
	if c.BaseURL != DefaultServerURL {
		t.Fatalf("BaseURL = %q", c.BaseURL)
	}
	if c.HTTP.Timeout != 30*time.Second {
		t.Fatalf("Timeout = %s", c.HTTP.Timeout)
	}

	c = NewClient("http://host:9000/", time.Second)
	if c.BaseURL != "http://host:9000" {
		t.Fatalf("BaseURL = %q, want trailing slash stripped", c.BaseURL)
	}
}
