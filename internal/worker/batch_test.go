package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/estatuto/internal/model"
)

type mockProcessor struct {
	calls   atomic.Int32
	failFor string
	delay   time.Duration
}

func (m *mockProcessor) ProcessRecord(ctx context.Context, rec model.ActRecord) (*model.StructuredAct, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.failFor != "" && strings.Contains(rec.SourceURL, m.failFor) {
		return nil, errors.New("processing failed")
	}
	status := model.StageOK
	if strings.Contains(rec.SourceURL, "deferred") {
		status = model.StageDeferred
	}
	return &model.StructuredAct{SourceURL: rec.SourceURL, Key: rec.Key(), Status: status}, nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessURLs(t *testing.T) {
	proc := &mockProcessor{delay: 5 * time.Millisecond}
	batch := NewBatchProcessor(proc, 2)

	urls := []string{
		"https://www.planalto.gov.br/ccivil_03/leis/l8666.htm",
		"https://www.planalto.gov.br/ccivil_03/leis/lcp/lcp101.htm",
		"https://www.planalto.gov.br/ccivil_03/leis/l9394.htm",
	}
	results := batch.ProcessURLs(context.Background(), urls)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Index != i || res.URL != urls[i] {
			t.Errorf("result %d out of order: %+v", i, res)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.URL, res.Error)
		}
		if res.Act == nil || res.Act.SourceURL != urls[i] {
			t.Errorf("expected act for %s", res.URL)
		}
	}
	if proc.calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", proc.calls.Load())
	}
}

func TestBatchProcessor_ProcessRecords_Summary(t *testing.T) {
	proc := &mockProcessor{failFor: "broken"}
	batch := NewBatchProcessor(proc, 3)

	records := []model.ActRecord{
		{ActType: model.ActOrdinaryLaw, ActNumber: "8.666", Year: 1993, SourceURL: "https://a.example/l8666.htm"},
		{ActType: model.ActOrdinaryLaw, ActNumber: "1", Year: 2000, SourceURL: "https://a.example/deferred.htm"},
		{SourceURL: "https://a.example/broken.htm"},
	}
	results := batch.ProcessRecords(context.Background(), records)

	if results[0].Act.Key != records[0].Key() {
		t.Errorf("record key not passed through: %+v", results[0].Act.Key)
	}

	got := Summarize(results)
	want := BatchSummary{Total: 3, Approved: 1, Deferred: 1, Failed: 1}
	if got != want {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	proc := &mockProcessor{delay: time.Second}
	batch := NewBatchProcessor(proc, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := batch.ProcessURLs(ctx, []string{"https://a.example/1", "https://a.example/2"})
	if len(results) != 2 {
		t.Fatalf("every input needs a result, got %d", len(results))
	}
	for _, r := range results {
		if r.Error == nil {
			t.Errorf("expected error for %s", r.URL)
		}
	}
}

func TestBatchProcessor_ProcessURLs_Empty(t *testing.T) {
	batch := NewBatchProcessor(&mockProcessor{}, 2)

	results := batch.ProcessURLs(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadURLsFromFile(t *testing.T) {
	path := writeFile(t, `https://www.planalto.gov.br/ccivil_03/leis/l8666.htm
# comentário
https://www.planalto.gov.br/ccivil_03/leis/lcp/lcp101.htm
   
not a url
ftp://files.example/l1.htm
https://www.planalto.gov.br/ccivil_03/leis/l8666.htm
http://www.camara.leg.br/lei.htm   `)

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	expected := []string{
		"https://www.planalto.gov.br/ccivil_03/leis/l8666.htm",
		"https://www.planalto.gov.br/ccivil_03/leis/lcp/lcp101.htm",
		"http://www.camara.leg.br/lei.htm",
	}
	if len(urls) != len(expected) {
		t.Fatalf("expected %d URLs, got %d: %v", len(expected), len(urls), urls)
	}
	for i, u := range urls {
		if u != expected[i] {
			t.Errorf("expected URL %s at index %d, got %s", expected[i], i, u)
		}
	}
}

func TestReadURLsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadURLsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestActResult_GetError(t *testing.T) {
	r1 := &ActResult{URL: "https://a.example"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("fetch failed")
	r2 := &ActResult{URL: "https://a.example", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeFile(t, "https://a.example/1\nhttps://a.example/2\n# comment\n\nhttps://a.example/3\n")

	results, err := NewBatchProcessor(&mockProcessor{}, 2).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	_, err := NewBatchProcessor(&mockProcessor{}, 2).ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile_Empty(t *testing.T) {
	path := writeFile(t, "")

	results, err := NewBatchProcessor(&mockProcessor{}, 2).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty file, got %d", len(results))
	}
}
