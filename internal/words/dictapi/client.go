// Package dictapi implements [words.Dictionary] against a Merriam-Webster
// style XML dictionary API (collegiate reference).
//
// Responses are cached per word for the lifetime of the client, and
// concurrent lookups of the same word are collapsed into a single upstream
// request via singleflight — the engine asks for the definition of a word
// once to validate it and possibly again when the player says "define".
package dictapi

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/spellrush/spellrush/internal/words"
)

// DefaultBaseURL is the collegiate dictionary XML endpoint.
const DefaultBaseURL = "https://www.dictionaryapi.com/api/v1/references/collegiate/xml"

// defaultTimeout bounds a single upstream request.
const defaultTimeout = 5 * time.Second

// maxBody caps how much of a response body is read; dictionary entries are
// small, anything bigger is a misbehaving upstream.
const maxBody = 1 << 20

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used in tests against httptest
// servers.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client is a [words.Dictionary] backed by the dictionary HTTP API.
// All methods are safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string][]string
}

// Compile-time interface check.
var _ words.Dictionary = (*Client)(nil)

// New creates a Client with the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		cache:   make(map[string][]string),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// entryList mirrors the subset of the XML response we read: every <dt>
// (defining text) of every entry.
type entryList struct {
	Entries []struct {
		Defs []struct {
			DTs []string `xml:"dt"`
		} `xml:"def"`
	} `xml:"entry"`
}

// Definitions implements [words.Dictionary]. It returns the cleaned defining
// texts for word, or [words.ErrNoDefinition] when the API has no entry.
func (c *Client) Definitions(ctx context.Context, word string) ([]string, error) {
	key := strings.ToLower(strings.TrimSpace(word))
	if key == "" {
		return nil, words.ErrNoDefinition
	}

	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		if len(cached) == 0 {
			return nil, words.ErrNoDefinition
		}
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Concurrent callers share this one flight, so it must not inherit
		// the first caller's cancellation; the timeout bounds it instead.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()

		defs, err := c.fetch(fctx, key)
		if err != nil {
			return nil, err
		}
		// Negative results are cached too; an undefined word stays undefined.
		c.mu.Lock()
		c.cache[key] = defs
		c.mu.Unlock()
		return defs, nil
	})
	if err != nil {
		return nil, err
	}

	defs := v.([]string)
	if len(defs) == 0 {
		return nil, words.ErrNoDefinition
	}
	return defs, nil
}

// fetch performs the upstream request and parses the entry list.
func (c *Client) fetch(ctx context.Context, word string) ([]string, error) {
	u := fmt.Sprintf("%s/%s?key=%s", c.baseURL, url.PathEscape(word), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dictapi: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dictapi: lookup %q: %w", word, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dictapi: lookup %q: unexpected status %s", word, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("dictapi: read response for %q: %w", word, err)
	}

	var list entryList
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("dictapi: parse response for %q: %w", word, err)
	}

	var defs []string
	for _, entry := range list.Entries {
		for _, def := range entry.Defs {
			for _, dt := range def.DTs {
				if cleaned := cleanDefiningText(dt); cleaned != "" {
					defs = append(defs, cleaned)
				}
			}
		}
	}
	return defs, nil
}

// cleanDefiningText normalizes a <dt> value: the API prefixes defining text
// with a colon and pads with whitespace.
func cleanDefiningText(dt string) string {
	s := strings.TrimSpace(dt)
	s = strings.TrimLeft(s, ":")
	return strings.TrimSpace(s)
}
