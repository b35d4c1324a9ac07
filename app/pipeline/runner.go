// Package pipeline drives one complete run: fetch, extract, classify,
// aggregate, assemble.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/classify"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/content"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/forum"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/stats"
)

// State tracks pipeline progress through a run. Failed is terminal and
// entered only when the run parameters fail validation before fetching
// starts, when the listing fetch fails, or when the context is cancelled
// mid-run: extraction and classification failures degrade per item
// instead of aborting.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateExtracting
	StateClassifying
	StateAggregating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateClassifying:
		return "classifying"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type ThreadFetcher interface {
	FetchThreads(ctx context.Context, sectionID int, maxPages int, maxAgeDays int) ([]forum.Thread, error)
}

type ContentExtractor interface {
	Extract(ctx context.Context, thread forum.Thread) content.PostContent
}

type ThreadClassifier interface {
	Classify(ctx context.Context, thread forum.Thread, pc content.PostContent) classify.Record
}

type Runner struct {
	fetcher    ThreadFetcher
	extractor  ContentExtractor
	classifier ThreadClassifier
	model      string
	state      State
	now        func() time.Time
}

func NewRunner(fetcher ThreadFetcher, extractor ContentExtractor, classifier ThreadClassifier, model string) *Runner {
	return &Runner{
		fetcher:    fetcher,
		extractor:  extractor,
		classifier: classifier,
		model:      model,
		state:      StateIdle,
		now:        time.Now,
	}
}

func (r *Runner) State() State {
	return r.state
}

func (r *Runner) setState(s State) {
	slog.Debug("Pipeline state change", "from", r.state, "to", s)
	r.state = s
}

// Run executes the whole pipeline for one section and returns the
// assembled report. Records keep listing order. The only fatal outcomes
// are a listing fetch failure and invalid run metadata.
func (r *Runner) Run(ctx context.Context, sectionID int, maxPages int, maxAgeDays int) (*stats.Report, error) {
	meta := stats.Metadata{
		SectionID:      sectionID,
		PagesRequested: maxPages,
		MaxAgeDays:     maxAgeDays,
		Model:          r.model,
		StartedAt:      r.now(),
	}
	if err := meta.Validate(); err != nil {
		r.setState(StateFailed)
		return nil, fmt.Errorf("refusing to start run: %w", err)
	}

	r.setState(StateFetching)
	threads, err := r.fetcher.FetchThreads(ctx, sectionID, maxPages, maxAgeDays)
	if err != nil {
		r.setState(StateFailed)
		return nil, fmt.Errorf("pipeline failed while fetching: %w", err)
	}

	r.setState(StateExtracting)
	contents := make([]content.PostContent, len(threads))
	for i, thread := range threads {
		if err := ctx.Err(); err != nil {
			r.setState(StateFailed)
			return nil, err
		}
		contents[i] = r.extractor.Extract(ctx, thread)
	}

	r.setState(StateClassifying)
	records := make([]classify.Record, len(threads))
	for i, thread := range threads {
		records[i] = r.classifier.Classify(ctx, thread, contents[i])
		slog.Info("Thread classified",
			"thread", thread.ID,
			"category", records[i].Category.String(),
			"parsed", records[i].Parsed,
			"progress", fmt.Sprintf("%d/%d", i+1, len(threads)))
	}

	r.setState(StateAggregating)
	categoryStats := stats.Aggregate(records)

	meta.FinishedAt = r.now()
	report, err := stats.Assemble(meta, records, categoryStats)
	if err != nil {
		r.setState(StateFailed)
		return nil, err
	}

	r.setState(StateDone)
	slog.Info("Run completed",
		"section", sectionID,
		"threads", len(records),
		"duration", meta.FinishedAt.Sub(meta.StartedAt))

	return report, nil
}
