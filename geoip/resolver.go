package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/stepherg/cellwatch"
)

// Reachability is the connectivity seam: a cheap yes/no before the resolver
// spends retries on an HTTP endpoint that clearly cannot be reached.
type Reachability interface {
	Reachable(ctx context.Context) bool
}

// Resolver looks up the device's current country from a geo-IP HTTP endpoint.
// Transient failures (connection errors, timeouts) are retried with a
// doubling, capped backoff; non-transient failures (HTTP error status,
// malformed body) abort immediately. Every failure path resolves to the
// explicit unknown Country; nothing escapes as an error.
type Resolver struct {
	cfg   cellwatch.GeoIPConfig
	reach Reachability
	log   logr.Logger

	// HTTP and sleep are injectable for tests.
	HTTP  *http.Client
	sleep func(time.Duration)
}

func NewResolver(cfg cellwatch.GeoIPConfig, reach Reachability, log logr.Logger) *Resolver {
	return &Resolver{
		cfg:   cfg,
		reach: reach,
		log:   log,
		HTTP:  &http.Client{Timeout: cfg.Timeout},
		sleep: time.Sleep,
	}
}

// ResolveCountry performs the bounded lookup for one decision cycle.
func (r *Resolver) ResolveCountry(ctx context.Context) cellwatch.Country {
	if r.reach != nil && !r.reach.Reachable(ctx) {
		r.log.Info("skipping geo-IP lookup, host unreachable", "url", r.cfg.URL)
		return cellwatch.UnknownCountry
	}

	delay := r.cfg.BackoffInitial
	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		country, err := r.fetch(ctx)
		if err == nil {
			return country
		}
		if !transient(err) {
			r.log.Error(err, "geo-IP lookup failed, not retrying", "attempt", attempt)
			return cellwatch.UnknownCountry
		}
		r.log.Info("geo-IP lookup failed, will retry", "attempt", attempt, "delay", delay, "error", err.Error())
		if attempt == r.cfg.MaxRetries {
			break
		}
		r.sleep(delay)
		delay *= 2
		if r.cfg.BackoffCap > 0 && delay > r.cfg.BackoffCap {
			delay = r.cfg.BackoffCap
		}
	}
	r.log.Info("geo-IP retries exhausted", "retries", r.cfg.MaxRetries)
	return cellwatch.UnknownCountry
}

func (r *Resolver) fetch(ctx context.Context) (cellwatch.Country, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.URL, nil)
	if err != nil {
		return cellwatch.UnknownCountry, fmt.Errorf("%w: %v", cellwatch.ErrMalformedBody, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return cellwatch.UnknownCountry, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return cellwatch.UnknownCountry, fmt.Errorf("%w: %s", cellwatch.ErrBadStatus, resp.Status)
	}
	var parsed struct {
		Country *string `json:"country"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return cellwatch.UnknownCountry, fmt.Errorf("%w: %v", cellwatch.ErrMalformedBody, err)
	}
	if parsed.Country == nil || *parsed.Country == "" {
		return cellwatch.UnknownCountry, fmt.Errorf("%w: missing country field", cellwatch.ErrMalformedBody)
	}
	return cellwatch.KnownCountry(*parsed.Country), nil
}

// transient reports whether err is worth a retry. Protocol-level rejections
// carry a sentinel; everything else out of the HTTP client (dial refusals,
// timeouts, resets) is connection-class and retryable.
func transient(err error) bool {
	return !errors.Is(err, cellwatch.ErrBadStatus) && !errors.Is(err, cellwatch.ErrMalformedBody)
}
