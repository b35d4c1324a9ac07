package stats

import (
	"time"

	"github.com/google/uuid"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/cfg"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/classify"
)

// Metadata describes one run: what was asked for and when it executed.
type Metadata struct {
	SectionID      int       `json:"section_id"`
	PagesRequested int       `json:"pages_requested"`
	MaxAgeDays     int       `json:"max_age_days"`
	Model          string    `json:"model"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Report is the complete outcome of a run: metadata, the classification
// records in listing order, and the aggregated distribution. It is built
// once and never mutated afterward.
type Report struct {
	RunID      string                             `json:"run_id"`
	Metadata   Metadata                           `json:"metadata"`
	Records    []classify.Record                  `json:"records"`
	Categories map[classify.Category]CategoryStat `json:"categories"`
	Authors    map[string]int                     `json:"authors"`
}

// Validate checks the run parameters a report is built from. It covers the
// fields known before fetching starts, so callers can reject a bad run
// up front instead of discovering it at assembly time.
func (m Metadata) Validate() error {
	if m.SectionID == 0 {
		return &cfg.ConfigurationError{Field: "section_id", Reason: "report metadata requires a section id"}
	}
	if m.PagesRequested <= 0 {
		return &cfg.ConfigurationError{Field: "pages_requested", Reason: "report metadata requires a positive page count"}
	}
	if m.MaxAgeDays <= 0 {
		return &cfg.ConfigurationError{Field: "max_age_days", Reason: "report metadata requires a positive day window"}
	}
	return nil
}

// Assemble packages a finished run into a Report. Pure data composition:
// the only failure mode is missing required metadata.
func Assemble(meta Metadata, records []classify.Record, categories map[classify.Category]CategoryStat) (*Report, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if meta.StartedAt.IsZero() || meta.FinishedAt.IsZero() {
		return nil, &cfg.ConfigurationError{Field: "timestamps", Reason: "report metadata requires run start and end times"}
	}

	authors := make(map[string]int)
	for _, record := range records {
		if record.Author != "" {
			authors[record.Author]++
		}
	}

	return &Report{
		RunID:      uuid.NewString(),
		Metadata:   meta,
		Records:    records,
		Categories: categories,
		Authors:    authors,
	}, nil
}
