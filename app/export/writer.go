// Package export renders a finished run report to disk. Formatters are
// pure: they consume the assembled Report and never reach back into the
// pipeline.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/classify"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/stats"
)

type Writer struct {
	outputDir string
}

func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// Write renders the report in the selected format. The plain-text summary
// is always written alongside. Returns the paths of all files produced.
func (w *Writer) Write(report *stats.Report, format string) ([]string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := report.Metadata.FinishedAt.Format("20060102_150405")
	var paths []string

	switch format {
	case "json":
		path := filepath.Join(w.outputDir, fmt.Sprintf("nga_classification_%s.json", timestamp))
		if err := w.writeJSON(report, path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	case "csv":
		path := filepath.Join(w.outputDir, fmt.Sprintf("nga_classification_%s.csv", timestamp))
		if err := w.writeCSV(report, path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	case "txt":
		// Summary only.
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	summaryPath := filepath.Join(w.outputDir, fmt.Sprintf("nga_summary_%s.txt", timestamp))
	if err := w.writeSummary(report, summaryPath); err != nil {
		return nil, err
	}
	paths = append(paths, summaryPath)

	slog.Info("Report written", "format", format, "files", len(paths), "dir", w.outputDir)
	return paths, nil
}

func (w *Writer) writeJSON(report *stats.Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSON report: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}

	return nil
}

func (w *Writer) writeCSV(report *stats.Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV report: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write([]string{"thread_id", "title", "author", "posted_at", "url", "category", "parsed"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, record := range report.Records {
		row := []string{
			record.ThreadID,
			record.Title,
			record.Author,
			record.PostedAt.Format("2006-01-02 15:04:05"),
			record.URL,
			record.Category.String(),
			strconv.FormatBool(record.Parsed),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func (w *Writer) writeSummary(report *stats.Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "NGA section %d content analysis\n", report.Metadata.SectionID)
	fmt.Fprintf(file, "Run %s, %s - %s\n",
		report.RunID,
		report.Metadata.StartedAt.Format("2006-01-02 15:04:05"),
		report.Metadata.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Model: %s, pages requested: %d, window: %d days\n\n",
		report.Metadata.Model, report.Metadata.PagesRequested, report.Metadata.MaxAgeDays)

	fmt.Fprintf(file, "Total threads: %d\n\n", len(report.Records))

	fmt.Fprintln(file, "Category distribution:")
	for _, category := range sortedCategories(report.Categories) {
		stat := report.Categories[category]
		fmt.Fprintf(file, "  %-16s %4d (%.1f%%)\n", category.String(), stat.Count, stat.Percentage)
	}

	if len(report.Authors) > 0 {
		fmt.Fprintln(file, "\nMost active authors:")
		for _, author := range topAuthors(report.Authors, 10) {
			fmt.Fprintf(file, "  %s: %d\n", author, report.Authors[author])
		}
	}

	return nil
}

// sortedCategories orders by count descending, then by canonical order for
// stable output.
func sortedCategories(categoryStats map[classify.Category]stats.CategoryStat) []classify.Category {
	categories := classify.Categories()
	sort.SliceStable(categories, func(i, j int) bool {
		return categoryStats[categories[i]].Count > categoryStats[categories[j]].Count
	})
	return categories
}

func topAuthors(authors map[string]int, limit int) []string {
	names := make([]string, 0, len(authors))
	for name := range authors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if authors[names[i]] != authors[names[j]] {
			return authors[names[i]] > authors[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > limit {
		names = names[:limit]
	}
	return names
}
