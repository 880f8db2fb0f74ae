// processing_server.go - Fake journal processing endpoint for tests
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// RecordedFile is one file part received by the fake endpoint.
type RecordedFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// RecordedRequest is one multipart submission received by the fake endpoint.
type RecordedRequest struct {
	Files  []RecordedFile
	Fields map[string]string
	Order  []string // field names in wire order
}

// ProcessingServer is an httptest server speaking the processing contract.
// By default it answers 200 with one transcription per page.
type ProcessingServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
	status   int
	body     string

	// Gate, when set, blocks every request until it receives or is closed.
	Gate chan struct{}
	// Started receives once per request after it has been recorded.
	Started chan struct{}
}

// NewProcessingServer starts a fake endpoint closed with t.Cleanup.
func NewProcessingServer(t testing.TB) *ProcessingServer {
	t.Helper()
	ps := &ProcessingServer{Started: make(chan struct{}, 16)}
	ps.Server = httptest.NewServer(http.HandlerFunc(ps.handle))
	t.Cleanup(ps.Close)
	return ps
}

// Endpoint is the URL submissions should be posted to.
func (ps *ProcessingServer) Endpoint() string {
	return ps.URL + "/api/journal/process"
}

// Respond fixes the status and body of every following response.
func (ps *ProcessingServer) Respond(status int, body string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.status = status
	ps.body = body
}

// Requests returns the submissions received so far.
func (ps *ProcessingServer) Requests() []RecordedRequest {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make([]RecordedRequest, len(ps.requests))
	copy(out, ps.requests)
	return out
}

func (ps *ProcessingServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	rec, err := readMultipart(r)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"error":%q}`, err.Error())
		return
	}

	ps.mu.Lock()
	ps.requests = append(ps.requests, rec)
	status, body := ps.status, ps.body
	ps.mu.Unlock()

	select {
	case ps.Started <- struct{}{}:
	default:
	}
	if ps.Gate != nil {
		<-ps.Gate
	}

	if status == 0 {
		status = http.StatusOK
		body = defaultBody(rec)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func readMultipart(r *http.Request) (RecordedRequest, error) {
	mt, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mt, "multipart/") {
		return RecordedRequest{}, fmt.Errorf("expected multipart body")
	}

	rec := RecordedRequest{Fields: map[string]string{}}
	mr := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return RecordedRequest{}, err
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return RecordedRequest{}, err
		}
		rec.Order = append(rec.Order, part.FormName())
		if part.FileName() != "" {
			rec.Files = append(rec.Files, RecordedFile{
				Field:       part.FormName(),
				Filename:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Data:        data,
			})
			continue
		}
		rec.Fields[part.FormName()] = string(data)
	}
	return rec, nil
}

func defaultBody(rec RecordedRequest) string {
	texts := make([]string, len(rec.Files))
	for i, f := range rec.Files {
		texts[i] = "text of " + f.Filename
	}
	out, _ := json.Marshal(map[string]any{
		"success":         true,
		"processed_pages": len(rec.Files),
		"results":         map[string]any{"texts": texts},
	})
	return string(out)
}
