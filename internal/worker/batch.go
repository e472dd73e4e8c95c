package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/estatuto/internal/model"
)

// Processor runs the full cycle for one act page
type Processor interface {
	ProcessRecord(ctx context.Context, rec model.ActRecord) (*model.StructuredAct, error)
}

// ActJob processes one act
type ActJob struct {
	Index     int
	Record    model.ActRecord
	Processor Processor
}

// Execute implements Job
func (j *ActJob) Execute(ctx context.Context) Result {
	start := time.Now()
	act, err := j.Processor.ProcessRecord(ctx, j.Record)
	return &ActResult{
		Index:    j.Index,
		URL:      j.Record.SourceURL,
		Act:      act,
		Error:    err,
		Duration: time.Since(start),
	}
}

// ActResult is the outcome of one ActJob. Act may be set alongside Error
// when processing succeeded but persisting failed.
type ActResult struct {
	Index    int
	URL      string
	Act      *model.StructuredAct
	Error    error
	Duration time.Duration
}

// GetError implements Result
func (r *ActResult) GetError() error {
	return r.Error
}

// BatchSummary counts batch outcomes
type BatchSummary struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Deferred int `json:"deferred"`
	Failed   int `json:"failed"`
}

// Summarize tallies results: failed on error, approved when the act status
// is ok, deferred otherwise
func Summarize(results []*ActResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Error != nil || r.Act == nil:
			s.Failed++
		case r.Act.Status == model.StageOK:
			s.Approved++
		default:
			s.Deferred++
		}
	}
	return s
}

// BatchProcessor processes many acts concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessURLs processes act pages by URL. Results keep input order.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*ActResult {
	records := make([]model.ActRecord, len(urls))
	for i, u := range urls {
		records[i] = model.ActRecord{SourceURL: u}
	}
	return b.ProcessRecords(ctx, records)
}

// ProcessRecords processes acts discovered on listing pages. Results keep
// input order; jobs not started before ctx ends are reported as failed.
func (b *BatchProcessor) ProcessRecords(ctx context.Context, records []model.ActRecord) []*ActResult {
	if len(records) == 0 {
		return []*ActResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	submitted := make([]bool, len(records))
	for i, rec := range records {
		submitted[i] = pool.Submit(&ActJob{Index: i, Record: rec, Processor: b.processor})
	}

	results := make([]*ActResult, 0, len(records))
	for _, r := range pool.Wait() {
		results = append(results, r.(*ActResult))
	}

	done := make(map[int]bool, len(results))
	for _, r := range results {
		done[r.Index] = true
	}
	for i, rec := range records {
		if done[i] {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = errors.New("job not run")
		}
		if !submitted[i] {
			err = fmt.Errorf("not submitted: %w", err)
		}
		results = append(results, &ActResult{Index: i, URL: rec.SourceURL, Error: err})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	s := Summarize(results)
	log.Info().
		Int("total", s.Total).
		Int("approved", s.Approved).
		Int("deferred", s.Deferred).
		Int("failed", s.Failed).
		Msg("Batch finished")

	return results
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ActResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads act URLs, one per line. Blank lines, # comments and
// lines that are not absolute http(s) URLs are skipped; duplicates collapse.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		u, err := url.Parse(line)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			log.Warn().Str("file", filePath).Int("line", lineNo).Str("value", line).Msg("Skipping invalid URL")
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
