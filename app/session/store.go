// Package session holds the cookie state used for authenticated forum
// access. The store is run-scoped: it is built once during startup and read
// by every outbound forum request for the rest of the run.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/cfg"
)

// Identity cookies NGA issues on login. Without both, the forum serves the
// guest view and most section listings are withheld.
var requiredCookies = []string{"ngaPassportUid", "ngaPassportCid"}

type Store struct {
	cookies map[string]string
}

func NewStore() *Store {
	return &Store{cookies: make(map[string]string)}
}

// SetCookies replaces the held mapping entirely. There is no partial merge:
// stale values from a previous mapping must not leak into the new one.
func (s *Store) SetCookies(cookies map[string]string) {
	s.cookies = make(map[string]string, len(cookies))
	for name, value := range cookies {
		s.cookies[name] = value
	}
}

// Cookies returns a copy of the held mapping.
func (s *Store) Cookies() map[string]string {
	out := make(map[string]string, len(s.cookies))
	for name, value := range s.cookies {
		out[name] = value
	}
	return out
}

// Attach adds every held cookie to the outbound request.
func (s *Store) Attach(req *http.Request) {
	for name, value := range s.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

// Validate reports whether the mapping carries the identity cookies needed
// for authenticated access.
func (s *Store) Validate() error {
	for _, name := range requiredCookies {
		if s.cookies[name] == "" {
			return &cfg.ConfigurationError{
				Field:  "cookies",
				Reason: fmt.Sprintf("required identity cookie %q is missing", name),
			}
		}
	}
	return nil
}

// LoadFile reads a saved cookie mapping (JSON object of name to value).
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read cookies file: %w", err)
	}

	var cookies map[string]string
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("failed to parse cookies file: %w", err)
	}

	s.SetCookies(cookies)
	slog.Debug("Cookies loaded", "path", path, "count", len(cookies))
	return nil
}

// SaveFile writes the held mapping back to disk for the next run.
func (s *Store) SaveFile(path string) error {
	data, err := json.MarshalIndent(s.cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write cookies file: %w", err)
	}

	slog.Debug("Cookies saved", "path", path, "count", len(s.cookies))
	return nil
}

// ImportHeader builds a store from a raw browser "Cookie:" header value
// and saves the mapping to path so later runs can pick it up without the
// header. Nothing is written when the header lacks the identity cookies.
func ImportHeader(header string, path string) (*Store, error) {
	s := NewStore()
	s.SetCookies(ParseCookieString(header))

	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := s.SaveFile(path); err != nil {
		return nil, err
	}

	slog.Info("Session cookies imported", "path", path, "count", len(s.cookies))
	return s, nil
}

// ParseCookieString splits a raw browser "Cookie:" header value into a
// name/value mapping.
func ParseCookieString(raw string) map[string]string {
	cookies := make(map[string]string)

	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		cookies[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	return cookies
}
