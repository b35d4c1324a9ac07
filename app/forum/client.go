package forum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/session"
)

// loginMarker appears in NGA's guest-access denial page.
const loginMarker = "你必须登录"

// Client performs the two forum HTTP operations: fetch a section listing
// page and fetch a thread page. Every request carries the session cookies
// and is paced by the shared rate limiter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Store
	userAgent  string
	limiter    *rate.Limiter
}

func NewClient(baseURL string, timeout time.Duration, sess *session.Store, userAgent string, delay time.Duration) *Client {
	if delay <= 0 {
		delay = time.Millisecond
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		session:    sess,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
	}
}

// FetchListingPage retrieves one page of the section listing as UTF-8 HTML.
func (c *Client) FetchListingPage(ctx context.Context, sectionID int, page int) ([]byte, error) {
	url := fmt.Sprintf("%s/thread.php?fid=%d&page=%d", c.baseURL, sectionID, page)
	return c.fetch(ctx, url)
}

// FetchThreadPage retrieves a thread page as UTF-8 HTML.
func (c *Client) FetchThreadPage(ctx context.Context, threadID string) ([]byte, error) {
	url := c.ThreadURL(threadID)
	return c.fetch(ctx, url)
}

// ThreadURL builds the canonical URL for a thread id.
func (c *Client) ThreadURL(threadID string) string {
	return fmt.Sprintf("%s/read.php?tid=%s", c.baseURL, threadID)
}

// CheckLogin fetches the section listing and reports whether the forum
// accepted the session cookies.
func (c *Client) CheckLogin(ctx context.Context, sectionID int) (bool, error) {
	_, err := c.FetchListingPage(ctx, sectionID, 1)
	if err != nil {
		if errors.Is(err, ErrLoginRequired) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	c.session.Attach(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(decodeBody(resp))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if strings.Contains(string(data), loginMarker) {
		return nil, ErrLoginRequired
	}

	return data, nil
}

// decodeBody converts NGA's legacy GBK pages to UTF-8. Pages already served
// as UTF-8 pass through unchanged.
func decodeBody(resp *http.Response) io.Reader {
	var dec *encoding.Decoder

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "gbk"), strings.Contains(contentType, "gb2312"):
		dec = simplifiedchinese.GBK.NewDecoder()
	case strings.Contains(contentType, "gb18030"):
		dec = simplifiedchinese.GB18030.NewDecoder()
	default:
		return resp.Body
	}

	return transform.NewReader(resp.Body, dec)
}
