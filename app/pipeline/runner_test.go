package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/classify"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/content"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/forum"
)

type stubFetcher struct {
	threads []forum.Thread
	err     error
	calls   int
}

func (s *stubFetcher) FetchThreads(context.Context, int, int, int) ([]forum.Thread, error) {
	s.calls++
	return s.threads, s.err
}

type stubExtractor struct {
	bodies map[string]string
	calls  []string
}

func (s *stubExtractor) Extract(_ context.Context, thread forum.Thread) content.PostContent {
	s.calls = append(s.calls, thread.ID)
	return content.PostContent{ThreadID: thread.ID, Body: s.bodies[thread.ID]}
}

type stubClassifier struct {
	labels map[string]classify.Category
	calls  []string
}

func (s *stubClassifier) Classify(_ context.Context, thread forum.Thread, pc content.PostContent) classify.Record {
	s.calls = append(s.calls, thread.ID)

	record := classify.Record{
		ThreadID: thread.ID,
		Title:    thread.Title,
		Author:   thread.Author,
		Category: classify.FallbackCategory,
	}
	if pc.Body == "" {
		return record
	}
	if category, ok := s.labels[thread.ID]; ok {
		record.Category = category
		record.Parsed = true
	}
	return record
}

func fixedThreads() []forum.Thread {
	posted := time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC)
	return []forum.Thread{
		{ID: "1", Title: "新番讨论", Author: "a", PostedAt: posted},
		{ID: "2", Title: "游戏攻略", Author: "b", PostedAt: posted},
		{ID: "3", Title: "无法抓取的帖子", Author: "c", PostedAt: posted},
	}
}

func newTestRunner() (*Runner, *stubExtractor, *stubClassifier) {
	extractor := &stubExtractor{bodies: map[string]string{
		"1": "关于新番的内容",
		"2": "关于游戏的内容",
		// thread 3 yields an empty body
	}}
	classifier := &stubClassifier{labels: map[string]classify.Category{
		"1": classify.CategoryAnimation,
		"2": classify.CategoryGames,
	}}
	runner := NewRunner(&stubFetcher{threads: fixedThreads()}, extractor, classifier, "gemma3:latest")
	runner.now = func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	return runner, extractor, classifier
}

func TestRun_HappyPath(t *testing.T) {
	runner, extractor, classifier := newTestRunner()

	report, err := runner.Run(context.Background(), -447601, 10, 7)
	if err != nil {
		t.Fatalf("Expected successful run, got error: %v", err)
	}

	if runner.State() != StateDone {
		t.Errorf("Expected terminal state done, got %v", runner.State())
	}

	// Listing order preserved through every stage.
	wantOrder := []string{"1", "2", "3"}
	if !reflect.DeepEqual(extractor.calls, wantOrder) {
		t.Errorf("Extraction order %v, want %v", extractor.calls, wantOrder)
	}
	if !reflect.DeepEqual(classifier.calls, wantOrder) {
		t.Errorf("Classification order %v, want %v", classifier.calls, wantOrder)
	}

	if len(report.Records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(report.Records))
	}
	if report.Records[0].Category != classify.CategoryAnimation {
		t.Errorf("Record 0: expected Animation, got %v", report.Records[0].Category)
	}
	if report.Records[2].Category != classify.CategoryOther || report.Records[2].Parsed {
		t.Errorf("Record 2: expected Other fallback for empty body, got %v parsed=%v",
			report.Records[2].Category, report.Records[2].Parsed)
	}

	// sum(counts) == len(records)
	sum := 0
	for _, stat := range report.Categories {
		sum += stat.Count
	}
	if sum != len(report.Records) {
		t.Errorf("Category counts sum to %d, want %d", sum, len(report.Records))
	}
}

func TestRun_FetchFailureIsFatal(t *testing.T) {
	fetchErr := &forum.FetchError{Stage: "listing", URL: "fid=-447601 page=1", Err: errors.New("boom")}
	runner := NewRunner(&stubFetcher{err: fetchErr}, &stubExtractor{}, &stubClassifier{}, "gemma3:latest")

	_, err := runner.Run(context.Background(), -447601, 10, 7)
	if err == nil {
		t.Fatal("Expected error for listing fetch failure")
	}
	if !errors.Is(err, fetchErr) {
		t.Errorf("Expected wrapped FetchError, got %v", err)
	}
	if runner.State() != StateFailed {
		t.Errorf("Expected terminal state failed, got %v", runner.State())
	}
}

// Invalid run parameters are rejected before any fetching happens.
func TestRun_InvalidParametersFailBeforeFetching(t *testing.T) {
	tests := []struct {
		name       string
		sectionID  int
		maxPages   int
		maxAgeDays int
	}{
		{"zero section", 0, 10, 7},
		{"zero pages", -447601, 0, 7},
		{"zero days", -447601, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &stubFetcher{threads: fixedThreads()}
			runner := NewRunner(fetcher, &stubExtractor{}, &stubClassifier{}, "gemma3:latest")

			if _, err := runner.Run(context.Background(), tt.sectionID, tt.maxPages, tt.maxAgeDays); err == nil {
				t.Fatal("Expected error for invalid run parameters")
			}
			if runner.State() != StateFailed {
				t.Errorf("Expected terminal state failed, got %v", runner.State())
			}
			if fetcher.calls != 0 {
				t.Errorf("Expected no fetch attempt, got %d", fetcher.calls)
			}
		})
	}
}

func TestRun_NoThreadsStillProducesReport(t *testing.T) {
	runner := NewRunner(&stubFetcher{}, &stubExtractor{}, &stubClassifier{}, "gemma3:latest")

	report, err := runner.Run(context.Background(), -447601, 10, 7)
	if err != nil {
		t.Fatalf("Expected empty run to complete, got error: %v", err)
	}

	if len(report.Records) != 0 {
		t.Errorf("Expected no records, got %d", len(report.Records))
	}
	for category, stat := range report.Categories {
		if stat.Count != 0 || stat.Percentage != 0 {
			t.Errorf("Category %v: expected 0/0, got %d/%f", category, stat.Count, stat.Percentage)
		}
	}
}

// Two runs over identical inputs produce identical classification results.
func TestRun_Deterministic(t *testing.T) {
	first, _, _ := newTestRunner()
	second, _, _ := newTestRunner()

	reportA, err := first.Run(context.Background(), -447601, 10, 7)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	reportB, err := second.Run(context.Background(), -447601, 10, 7)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if !reflect.DeepEqual(reportA.Records, reportB.Records) {
		t.Error("Expected identical records across runs with identical inputs")
	}
	if !reflect.DeepEqual(reportA.Categories, reportB.Categories) {
		t.Error("Expected identical category stats across runs with identical inputs")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, _, _ := newTestRunner()

	if _, err := runner.Run(ctx, -447601, 10, 7); err == nil {
		t.Error("Expected error for cancelled context")
	}
	if runner.State() != StateFailed {
		t.Errorf("Expected terminal state failed, got %v", runner.State())
	}
}
