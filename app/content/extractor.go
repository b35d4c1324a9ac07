// Package content retrieves and cleans the first-post body of forum
// threads ahead of classification.
package content

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/forum"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/retry"
)

// MaxBodyLength caps how much post text is embedded in a classification
// prompt. Fixed so runs over identical fixtures stay reproducible.
const MaxBodyLength = 2000

// PostContent is the cleaned first-post text of one thread. Body is empty
// when retrieval or extraction failed; such threads still get classified,
// via the fallback path.
type PostContent struct {
	ThreadID string
	Body     string
}

// postSelectors locate the first post's body in NGA thread markup, most
// specific first.
var postSelectors = []string{
	".postcontent",
	"[id^='postcontainer']",
	".ubbcode",
	".quote",
}

var (
	ubbCodePattern    = regexp.MustCompile(`\[.*?\]`)
	editNotePattern   = regexp.MustCompile(`本帖最后由.*?编辑`)
	replyUIPattern    = regexp.MustCompile(`使用道具.*?举报|回复.*?支持.*?反对`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

type Extractor struct {
	client *forum.Client
	policy *retry.Policy
}

func NewExtractor(client *forum.Client, policy *retry.Policy) *Extractor {
	return &Extractor{client: client, policy: policy}
}

// Extract fetches the thread page and returns its cleaned first-post text.
// Retrieval failures are never fatal: after retry exhaustion the thread
// gets an empty body and the run continues.
func (e *Extractor) Extract(ctx context.Context, thread forum.Thread) PostContent {
	var data []byte
	err := e.policy.Do(ctx, "thread "+thread.ID, func(ctx context.Context) error {
		var fetchErr error
		data, fetchErr = e.client.FetchThreadPage(ctx, thread.ID)
		return fetchErr
	})
	if err != nil {
		slog.Warn("Failed to fetch thread content, continuing with empty body",
			"thread", thread.ID,
			"title", thread.Title,
			"error", err)
		return PostContent{ThreadID: thread.ID}
	}

	body := ParseFirstPost(data)
	if body == "" {
		slog.Warn("No post content extracted", "thread", thread.ID, "title", thread.Title)
	}

	return PostContent{ThreadID: thread.ID, Body: body}
}

// ParseFirstPost extracts the first post's plain text from a thread page.
// The known NGA selectors are tried in order; if none match, the whole
// page goes through readability as a fallback.
func ParseFirstPost(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	for _, selector := range postSelectors {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}
		if text := CleanText(el.Text()); text != "" {
			return truncate(text)
		}
	}

	article, err := readability.FromReader(bytes.NewReader(data), nil)
	if err != nil {
		return ""
	}

	return truncate(CleanText(article.TextContent))
}

// CleanText strips UBB codes, edit notes and forum UI boilerplate, then
// collapses whitespace.
func CleanText(text string) string {
	text = ubbCodePattern.ReplaceAllString(text, "")
	text = editNotePattern.ReplaceAllString(text, "")
	text = replyUIPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxBodyLength {
		return text
	}
	return string(runes[:MaxBodyLength])
}
