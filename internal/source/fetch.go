package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"

	appLog "dayview/internal/log"
)

// FetchResult is the body of one ICS feed and where it came from.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool
}

// validators are the HTTP cache validators stored next to a feed body.
type validators struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Fetcher downloads ICS feeds with conditional requests. The last good
// body of every feed is kept on disk and served when the network or the
// server fails.
type Fetcher struct {
	client *http.Client
	store  *diskv.Diskv
}

// NewFetcher keeps feed bodies under cacheDir, one directory per URL.
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		store: diskv.New(diskv.Options{
			BasePath:          cacheDir,
			AdvancedTransform: feedKeyToPath,
			InverseTransform:  feedPathToKey,
		}),
	}
}

// FetchOne returns the current body of src.URL.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source: URL is empty")
	}
	id := feedID(src.URL)
	v := f.readValidators(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("source: build request: %w", err)
	}
	if v.ETag != "" {
		req.Header.Set("If-None-Match", v.ETag)
	}
	if v.LastModified != "" {
		req.Header.Set("If-Modified-Since", v.LastModified)
	}

	appLog.Debug("ics fetch", "id", src.ID, "url", redactURL(src.URL))
	resp, err := f.client.Do(req)
	if err != nil {
		return f.fallback(src, id, fmt.Errorf("source: fetch %s: %w", redactURL(src.URL), err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return f.fallback(src, id, fmt.Errorf("source: read %s: %w", redactURL(src.URL), err))
		}
		f.remember(id, body, validators{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		})
		appLog.Info("ics fetched", "id", src.ID, "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		appLog.Debug("ics not modified", "id", src.ID)
		return f.cached(src, id, errors.New("source: 304 Not Modified without a cached body"))

	default:
		return f.fallback(src, id, fmt.Errorf("source: fetch %s: %s", redactURL(src.URL), resp.Status))
	}
}

// cached serves the stored body for id, or cause when there is none.
func (f *Fetcher) cached(src Source, id string, cause error) (FetchResult, error) {
	body, err := f.store.Read(id + "-body")
	if err != nil || len(body) == 0 {
		return FetchResult{}, cause
	}
	return FetchResult{Source: src, Body: body, FromCache: true}, nil
}

// fallback is cached for failed fetches.
func (f *Fetcher) fallback(src Source, id string, cause error) (FetchResult, error) {
	res, err := f.cached(src, id, cause)
	if err == nil {
		appLog.Warn("ics fetch failed; serving cached body", "id", src.ID, "cause", cause.Error())
	}
	return res, err
}

func (f *Fetcher) readValidators(id string) validators {
	var v validators
	data, err := f.store.Read(id + "-meta")
	if err != nil {
		return v
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return validators{}
	}
	return v
}

// remember stores the body before its validators so the validators never
// describe a body that is not on disk.
func (f *Fetcher) remember(id string, body []byte, v validators) {
	if err := f.store.Write(id+"-body", body); err != nil {
		appLog.Error("ics cache write failed", err, "url", redactURL(v.URL))
		return
	}
	v.FetchedAt = time.Now().UTC()
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := f.store.Write(id+"-meta", data); err != nil {
		appLog.Error("ics cache write failed", err, "url", redactURL(v.URL))
	}
}

func feedID(u string) string {
	sum := sha256.Sum256([]byte(u))
	return hex.EncodeToString(sum[:8])
}

func feedKeyToPath(s string) *diskv.PathKey {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) < 2 {
		return &diskv.PathKey{FileName: s}
	}
	return &diskv.PathKey{Path: parts[:1], FileName: parts[1]}
}

func feedPathToKey(pk *diskv.PathKey) string {
	if len(pk.Path) == 0 {
		return pk.FileName
	}
	return pk.Path[0] + "-" + pk.FileName
}

// redactURL keeps only the scheme and host of a feed URL; paths and
// queries often carry private tokens.
//
//	https://example.com/path/to/private.ics?token=abcd -> https://example.com/...(redacted)
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"
	parsed, err := url.Parse(u)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "ics:/" + redactedSuffix
	}
	return parsed.Scheme + "://" + parsed.Host + redactedSuffix
}
