// Package classify assigns each thread to one of the eight fixed content
// categories using a locally hosted language model.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/content"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/forum"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/retry"
)

// Record is the classification outcome for one thread. Parsed is true when
// the category was recognized in the model's answer; a Parsed=false record
// always carries the fallback category. RawResponse keeps the model output
// for diagnostics.
type Record struct {
	ThreadID    string    `json:"thread_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	URL         string    `json:"url"`
	PostedAt    time.Time `json:"posted_at"`
	Category    Category  `json:"category"`
	Parsed      bool      `json:"parsed"`
	RawResponse string    `json:"raw_response,omitempty"`
}

// ClassificationError reports an inference failure for a single thread.
// It is never fatal: the pipeline degrades the item to the fallback
// category and continues.
type ClassificationError struct {
	ThreadID string
	Err      error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed for thread %s: %v", e.ThreadID, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

const promptTemplate = `You are sorting posts from an ACG (anime, comics and games) discussion forum.

Post title: %s
Post content: %s

Answer with exactly one of the following category labels and nothing else:
%s

If none of them fits, answer "Other".`

type Classifier struct {
	ollama   *OllamaClient
	policy   *retry.Policy
	synonyms SynonymTable
}

func NewClassifier(ollama *OllamaClient, policy *retry.Policy, synonyms SynonymTable) *Classifier {
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}
	return &Classifier{
		ollama:   ollama,
		policy:   policy,
		synonyms: synonyms,
	}
}

// Classify produces one Record for a thread with extracted content. An
// empty body short-circuits to the fallback category without touching the
// inference service. Inference failures after retry exhaustion likewise
// degrade to the fallback category.
func (c *Classifier) Classify(ctx context.Context, thread forum.Thread, pc content.PostContent) Record {
	record := Record{
		ThreadID: thread.ID,
		Title:    thread.Title,
		Author:   thread.Author,
		URL:      thread.URL,
		PostedAt: thread.PostedAt,
		Category: FallbackCategory,
	}

	if pc.Body == "" {
		slog.Debug("Empty post body, using fallback category", "thread", thread.ID)
		return record
	}

	prompt := buildPrompt(thread.Title, pc.Body)

	var response string
	err := c.policy.Do(ctx, "classification "+thread.ID, func(ctx context.Context) error {
		var genErr error
		response, genErr = c.ollama.Generate(ctx, prompt)
		return genErr
	})
	if err != nil {
		clsErr := &ClassificationError{ThreadID: thread.ID, Err: err}
		slog.Warn("Classification failed, using fallback category", "thread", thread.ID, "error", clsErr)
		return record
	}

	record.RawResponse = response

	category, parsed := ParseLabel(response, c.synonyms)
	if !parsed {
		slog.Debug("Unrecognized model response, using fallback category",
			"thread", thread.ID,
			"response", response)
		return record
	}

	record.Category = category
	record.Parsed = true
	return record
}

func buildPrompt(title, body string) string {
	labels := make([]string, 0, len(Categories()))
	for _, c := range Categories() {
		labels = append(labels, "- "+c.String())
	}
	return fmt.Sprintf(promptTemplate, title, body, strings.Join(labels, "\n"))
}
