// Package dataset loads the patient records plotted by the histogram.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultField is the record field holding observed blood loss in mL.
const DefaultField = "intraop_ebl"

const maxPayloadBytes = 64 << 20

// Record is one patient record. Only the value field is interpreted.
type Record map[string]any

// Source fetches the full set of records once.
type Source interface {
	Load(ctx context.Context) ([]Record, error)
	Name() string
}

// FileSource reads a JSON array of records from disk.
type FileSource struct {
	Path string
}

// NewFileSource returns a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name implements Source.
func (s *FileSource) Name() string { return "file" }

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSource, err)
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrSource, s.Path, err)
	}
	return decode(bytes.NewReader(b))
}

// HTTPSource fetches a JSON array of records with a GET request.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource returns a source fetching url. A zero timeout means no
// client-side limit beyond ctx.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http" }

// Load implements Source. Any non-2xx status is a failure; nothing is retried.
func (s *HTTPSource) Load(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrSource, err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrSource, s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: get %s: status %d", ErrSource, s.URL, resp.StatusCode)
	}
	return decode(io.LimitReader(resp.Body, maxPayloadBytes))
}

func decode(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrSource, err)
	}
	return records, nil
}
