package forum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/retry"
)

// Fetcher retrieves section listing pages and turns them into a filtered,
// listing-ordered set of threads.
type Fetcher struct {
	client *Client
	policy *retry.Policy
	now    func() time.Time
}

func NewFetcher(client *Client, policy *retry.Policy) *Fetcher {
	return &Fetcher{
		client: client,
		policy: policy,
		now:    time.Now,
	}
}

// FetchThreads fetches listing pages sequentially, page 1 first, until
// maxPages is reached or a whole page falls outside the time window.
//
// The early stop assumes NGA listings are ordered newest-first: once the
// most recent thread on a page is already older than the cutoff, no later
// page can contain an in-window thread. Threads exactly at the cutoff are
// kept (inclusive lower bound).
//
// A page that fails after retry exhaustion aborts the whole fetch with a
// FetchError. A page whose markup cannot be parsed contributes zero threads
// but does not stop the remaining pages.
func (f *Fetcher) FetchThreads(ctx context.Context, sectionID int, maxPages int, maxAgeDays int) ([]Thread, error) {
	cutoff := f.now().AddDate(0, 0, -maxAgeDays)

	var threads []Thread

	for page := 1; page <= maxPages; page++ {
		var data []byte
		err := f.policy.Do(ctx, fmt.Sprintf("listing page %d", page), func(ctx context.Context) error {
			var fetchErr error
			data, fetchErr = f.client.FetchListingPage(ctx, sectionID, page)
			return fetchErr
		})
		if err != nil {
			if errors.Is(err, ErrLoginRequired) {
				slog.Error("Section listing requires login", "section", sectionID, "page", page)
			}
			return nil, &FetchError{
				Stage: "listing",
				URL:   fmt.Sprintf("fid=%d page=%d", sectionID, page),
				Err:   err,
			}
		}

		pageThreads, err := ParseListing(data, page)
		if err != nil {
			// Per-page parse failures are non-fatal: log and move on.
			slog.Warn("Skipping unparseable listing page", "section", sectionID, "page", page, "error", err)
			continue
		}

		if len(pageThreads) == 0 {
			slog.Info("Empty listing page, stopping", "section", sectionID, "page", page)
			break
		}

		kept := 0
		newest := time.Time{}
		for _, t := range pageThreads {
			if t.PostedAt.After(newest) {
				newest = t.PostedAt
			}
			if t.PostedAt.Before(cutoff) {
				continue
			}
			threads = append(threads, t)
			kept++
		}

		slog.Debug("Listing page fetched",
			"section", sectionID,
			"page", page,
			"threads", len(pageThreads),
			"in_window", kept)

		// A zero newest means no row on the page carried a parseable date;
		// that says nothing about later pages, so keep going.
		if !newest.IsZero() && newest.Before(cutoff) {
			slog.Info("Listing page outside time window, stopping",
				"section", sectionID,
				"page", page,
				"cutoff", cutoff)
			break
		}
	}

	slog.Info("Section fetch completed",
		"section", sectionID,
		"threads", len(threads),
		"max_pages", maxPages,
		"max_age_days", maxAgeDays)

	return threads, nil
}
