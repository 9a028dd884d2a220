package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrAllSourcesExhausted signals that every candidate URL failed.
	ErrAllSourcesExhausted = errors.New("all asset sources exhausted")

	// ErrNoCandidates signals a request with an empty candidate list.
	ErrNoCandidates = errors.New("asset request has no candidate urls")
)

// Kind tells the caller how to decode a fetched asset.
type Kind int

const (
	KindModel Kind = iota
	KindAnimation
)

func (k Kind) String() string {
	if k == KindAnimation {
		return "animation"
	}
	return "model"
}

// Request names an asset and the ordered locations it may be fetched from.
// Candidates are tried strictly in order; the first that fetches and
// decodes cleanly wins.
type Request struct {
	Name          string
	Kind          Kind
	CandidateURLs []string
}

// Outcome records one resolution attempt. SourceIndex is the index of the
// winning candidate, -1 on failure. Immutable once returned.
type Outcome struct {
	Name        string
	Succeeded   bool
	SourceIndex int
	Err         error
}

// LogFunc receives progress and per-attempt events; the scene routes these
// onto the bridge as log messages.
type LogFunc func(format string, args ...any)

// DecodeFunc validates and consumes a fetched payload. A decode error at
// one candidate advances the fallback exactly like a transport error.
type DecodeFunc func(data []byte) error

// Resolver fetches assets over HTTP with ordered fallback. Nothing is
// cached across calls.
type Resolver struct {
	client *http.Client
	log    LogFunc
}

// NewResolver builds a resolver. A nil client gets a 30s-timeout default;
// a nil log discards events.
func NewResolver(client *http.Client, log LogFunc) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = func(string, ...any) {}
	}
	return &Resolver{client: client, log: log}
}

// Load tries each candidate in order and decodes the first payload that
// fetches cleanly. Candidates are never fetched in parallel, so fallback
// order is deterministic and no bandwidth is spent on redundant fetches.
func (r *Resolver) Load(ctx context.Context, req Request, decode DecodeFunc) Outcome {
	if len(req.CandidateURLs) == 0 {
		return Outcome{Name: req.Name, SourceIndex: -1, Err: ErrNoCandidates}
	}

	var lastErr error
	for i, url := range req.CandidateURLs {
		r.log("loading %s %q from source %d/%d", req.Kind, req.Name, i+1, len(req.CandidateURLs))

		data, err := r.fetch(ctx, req.Name, url)
		if err == nil {
			err = decode(data)
		}
		if err != nil {
			lastErr = err
			r.log("source %d for %s %q failed: %v", i+1, req.Kind, req.Name, err)
			continue
		}

		r.log("%s %q loaded from source %d", req.Kind, req.Name, i+1)
		return Outcome{Name: req.Name, Succeeded: true, SourceIndex: i}
	}

	return Outcome{
		Name:        req.Name,
		SourceIndex: -1,
		Err:         fmt.Errorf("%w: %s %q: %v", ErrAllSourcesExhausted, req.Kind, req.Name, lastErr),
	}
}

func (r *Resolver) fetch(ctx context.Context, name, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch: status=%d body=%s", resp.StatusCode, body)
	}

	if resp.ContentLength > 0 {
		return r.readWithProgress(resp.Body, name, resp.ContentLength)
	}
	// unknown total size: progress reporting suppressed
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// readWithProgress reads the body logging at each 25% step.
func (r *Resolver) readWithProgress(body io.Reader, name string, total int64) ([]byte, error) {
	data := make([]byte, 0, total)
	buf := make([]byte, 32*1024)
	var read int64
	nextStep := int64(25)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
			read += int64(n)
			for percent := read * 100 / total; percent >= nextStep && nextStep <= 100; nextStep += 25 {
				r.log("loading %q: %d%%", name, nextStep)
			}
		}
		if err == io.EOF {
			return data, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	}
}
