package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/cfg"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/classify"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/content"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/export"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/forum"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/pipeline"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/retry"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/session"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/stats"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appConfig.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ollama := classify.NewOllamaClient(
		appConfig.OllamaURL,
		appConfig.OllamaModel,
		time.Duration(appConfig.OllamaTimeout)*time.Second)

	if appConfig.TestOllama {
		if err := ollama.Probe(ctx); err != nil {
			log.Fatal("Ollama probe failed: ", err)
		}
		fmt.Printf("Ollama connection OK, model %s is installed\n", appConfig.OllamaModel)
		return
	}

	sess, err := loadSession(appConfig)
	if err != nil {
		log.Fatal("Failed to load session: ", err)
	}

	forumClient := forum.NewClient(
		appConfig.BaseURL,
		time.Duration(appConfig.RequestTimeout)*time.Second,
		sess,
		appConfig.UserAgent,
		time.Duration(appConfig.RequestDelay)*time.Millisecond)

	synonyms, err := classify.LoadSynonyms(appConfig.CategoriesFile)
	if err != nil {
		log.Fatal("Failed to load category synonyms: ", err)
	}

	policy := retry.NewPolicy(appConfig.RetryAttempts, retry.DefaultBaseDelay)

	runner := pipeline.NewRunner(
		forum.NewFetcher(forumClient, policy),
		content.NewExtractor(forumClient, policy),
		classify.NewClassifier(ollama, policy, synonyms),
		appConfig.OllamaModel)

	log.Printf("Analyzing NGA section %d (max %d pages, %d day window)...",
		appConfig.SectionID, appConfig.MaxPages, appConfig.MaxAgeDays)

	report, err := runner.Run(ctx, appConfig.SectionID, appConfig.MaxPages, appConfig.MaxAgeDays)
	if err != nil {
		log.Fatal("Run failed: ", err)
	}

	writer := export.NewWriter(appConfig.OutputDir)
	paths, err := writer.Write(report, appConfig.OutputFormat)
	if err != nil {
		log.Fatal("Failed to write report: ", err)
	}

	if appConfig.Charts {
		chartPath, err := writer.WriteChart(report)
		if err != nil {
			log.Fatal("Failed to render chart: ", err)
		}
		paths = append(paths, chartPath)
	}

	printSummary(report)
	for _, path := range paths {
		fmt.Printf("Saved: %s\n", path)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadSession builds the cookie session. A raw --cookies header takes
// precedence: it is parsed, validated and saved to the cookies file for
// later runs. Otherwise the saved cookie file is read when present. A
// missing file is not fatal: the run proceeds anonymously and the forum
// decides whether the section is visible to guests. An unreadable or
// incomplete cookie file is a configuration problem and aborts
// immediately.
func loadSession(appConfig *cfg.Cfg) (*session.Store, error) {
	if appConfig.Cookies != "" {
		return session.ImportHeader(appConfig.Cookies, appConfig.CookiesFile)
	}

	sess := session.NewStore()

	if _, err := os.Stat(appConfig.CookiesFile); errors.Is(err, os.ErrNotExist) {
		slog.Warn("No cookies file found, accessing forum anonymously", "path", appConfig.CookiesFile)
		return sess, nil
	}

	if err := sess.LoadFile(appConfig.CookiesFile); err != nil {
		return nil, err
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}

	slog.Info("Session cookies loaded", "path", appConfig.CookiesFile)
	return sess, nil
}

func printSummary(report *stats.Report) {
	fmt.Printf("\n=== Classification results ===\n")
	fmt.Printf("Total threads: %d\n\n", len(report.Records))

	categories := classify.Categories()
	sort.SliceStable(categories, func(i, j int) bool {
		return report.Categories[categories[i]].Count > report.Categories[categories[j]].Count
	})

	for _, category := range categories {
		stat := report.Categories[category]
		if stat.Count == 0 {
			continue
		}
		fmt.Printf("  %-16s %4d (%.1f%%)\n", category.String(), stat.Count, stat.Percentage)
	}
}
