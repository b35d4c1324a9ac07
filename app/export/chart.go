package export

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/stats"
)

// WriteChart renders the category distribution as a bar chart PNG next to
// the other report files. Bars follow the summary's ordering: count
// descending, canonical order as tiebreak.
func (w *Writer) WriteChart(report *stats.Report) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("NGA section %d category distribution", report.Metadata.SectionID)
	p.Y.Label.Text = "Threads"

	categories := sortedCategories(report.Categories)
	values := make(plotter.Values, len(categories))
	labels := make([]string, len(categories))
	for i, category := range categories {
		values[i] = float64(report.Categories[category].Count)
		labels[i] = category.String()
	}

	bars, err := plotter.NewBarChart(values, vg.Points(28))
	if err != nil {
		return "", fmt.Errorf("failed to build bar chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = 0.6
	p.X.Tick.Label.XAlign = -0.8

	timestamp := report.Metadata.FinishedAt.Format("20060102_150405")
	path := filepath.Join(w.outputDir, fmt.Sprintf("nga_categories_%s.png", timestamp))
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}

	return path, nil
}
