package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"csvreduce/internal/datasource"
)

var _ datasource.Source = (*Source)(nil)

// StatusError reports a response whose status is not 200 OK.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// IsURL reports whether input names an http:// or https:// resource.
func IsURL(input string) bool {
	s := strings.ToLower(input)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Source reads one remote CSV document.
type Source struct {
	client *Client
	url    string
}

// New returns a Source fetching url through client.
func New(client *Client, url string) *Source {
	return &Source{client: client, url: url}
}

// URL returns the configured URL.
func (s *Source) URL() string { return s.url }

// Open fetches the document and returns its body for streaming. Any final
// status other than 200 is a *StatusError.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: s.url, Code: resp.StatusCode}
	}
	return resp.Body, nil
}
