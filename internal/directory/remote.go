package directory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"warehouse-reservation-backend/internal/domain"
)

// RemoteConfig points each entity kind at the service that owns it.
type RemoteConfig struct {
	// BaseURLs maps a kind to a base URL; GET {base}/{kind}/{id} is issued.
	BaseURLs  map[Kind]string
	Headers   map[string]string
	HTTPProxy string
	Timeout   time.Duration
}

// Remote resolves identities over HTTP. 200 means present, 404 absent,
// anything else is DependencyUnavailable.
type Remote struct {
	cfg    RemoteConfig
	client *http.Client
}

func NewRemote(cfg RemoteConfig) *Remote {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			slog.Warn("invalid directory proxy URL, not using a proxy", "proxy", cfg.HTTPProxy, "error", err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Remote{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

func (r *Remote) Exists(ctx context.Context, kind Kind, id string) (bool, error) {
	base, ok := r.cfg.BaseURLs[kind]
	if !ok || base == "" {
		return false, domain.NewError(domain.KindDependencyUnavailable, fmt.Sprintf("no directory configured for %s", kind))
	}
	endpoint := fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), kind, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range r.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return false, domain.WrapError(domain.KindDependencyUnavailable, fmt.Sprintf("%s directory request failed", kind), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, domain.NewError(domain.KindDependencyUnavailable,
		fmt.Sprintf("%s directory returned status %d", kind, resp.StatusCode))
}
