package forum

import "time"

// Thread is one listing entry from a forum section. Immutable once parsed.
type Thread struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	URL      string    `json:"url"`
	PostedAt time.Time `json:"posted_at"`
	Replies  int       `json:"replies"`
}
