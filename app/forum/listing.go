package forum

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// tidPatterns cover the URL shapes NGA uses for thread links.
var tidPatterns = []*regexp.Regexp{
	regexp.MustCompile(`tid=(\d+)`),
	regexp.MustCompile(`/thread/(\d+)`),
	regexp.MustCompile(`/read/(\d+)`),
}

// ParseListing extracts thread metadata from one section listing page.
// Threads keep row order; rows sharing a thread id are deduplicated on
// first occurrence. A page whose markup yields no listing table at all is
// reported as a ParseError.
func ParseListing(data []byte, page int) ([]Thread, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Page: page, Err: err}
	}

	rows := doc.Find("table tr")
	if rows.Length() == 0 {
		return nil, &ParseError{Page: page, Err: fmt.Errorf("no listing table found")}
	}

	var threads []Thread
	seen := make(map[string]bool)

	rows.Each(func(_ int, row *goquery.Selection) {
		thread, ok := parseListingRow(row)
		if !ok || seen[thread.ID] {
			return
		}
		seen[thread.ID] = true
		threads = append(threads, thread)
	})

	return threads, nil
}

// parseListingRow reads one table row. NGA listing rows carry the reply
// count in the first cell, the title link in the second and author plus
// post date in the following cells.
func parseListingRow(row *goquery.Selection) (Thread, bool) {
	cells := row.Find("td")
	if cells.Length() < 3 {
		return Thread{}, false
	}

	titleCell := cells.Eq(1)
	link := titleCell.Find("a[href]").First()
	href, _ := link.Attr("href")
	if href == "" || !(strings.Contains(href, "read.php") || strings.Contains(href, "tid=")) {
		return Thread{}, false
	}

	title := strings.TrimSpace(link.Text())
	if len([]rune(title)) < 3 {
		return Thread{}, false
	}

	id := extractThreadID(href)
	if id == "" {
		return Thread{}, false
	}

	thread := Thread{
		ID:    id,
		Title: title,
		URL:   href,
	}

	if replies, err := strconv.Atoi(strings.TrimSpace(cells.Eq(0).Text())); err == nil && replies >= 0 {
		thread.Replies = replies
	}

	authorCell := cells.Eq(2)
	authorLink := authorCell.Find("a[href*='uid=']").First()
	if authorLink.Length() > 0 {
		thread.Author = strings.TrimSpace(authorLink.Text())
	} else {
		thread.Author = strings.TrimSpace(authorCell.Text())
	}

	thread.PostedAt = parsePostDate(row)

	return thread, true
}

// extractThreadID pulls the numeric tid out of a thread link.
func extractThreadID(href string) string {
	for _, pattern := range tidPatterns {
		if m := pattern.FindStringSubmatch(href); m != nil {
			return m[1]
		}
	}
	return ""
}

// parsePostDate reads the post timestamp from the row's postdate element.
// NGA renders the unix timestamp in the title attribute and a formatted
// date as text; both forms are accepted.
func parsePostDate(row *goquery.Selection) time.Time {
	el := row.Find(".postdate").First()
	if el.Length() == 0 {
		return time.Time{}
	}

	if title, ok := el.Attr("title"); ok {
		if ts := parseTimestamp(title); !ts.IsZero() {
			return ts
		}
	}

	return parseTimestamp(strings.TrimSpace(el.Text()))
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0)
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts
		}
	}

	return time.Time{}
}
