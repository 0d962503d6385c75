package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/analytics-dashboard-api/internal/config"
	"github.com/analytics-dashboard-api/internal/domain"
)

const (
	cacheKeyPrefix = "cache:v1:"
	maxBodyBytes   = 1 << 20
	forwardTimeout = 30 * time.Second
)

// Cache is the edge KV store for memoized origin responses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Proxy forwards the action protocol to the origin API and memoizes
// whitelisted read-only actions. Only responses that pass the validity
// predicate are stored or served, so auth errors and partial payloads
// never reach the cache.
type Proxy struct {
	cache     Cache
	client    *http.Client
	originURL string
	ttl       time.Duration
	cacheable map[string]bool
}

func NewProxy(cfg *config.Config, cache Cache) *Proxy {
	cacheable := make(map[string]bool, len(cfg.CacheableActions))
	for _, a := range cfg.CacheableActions {
		cacheable[a] = true
	}
	return &Proxy{
		cache:     cache,
		client:    &http.Client{Timeout: forwardTimeout},
		originURL: cfg.OriginURL,
		ttl:       cfg.CacheTTL,
		cacheable: cacheable,
	}
}

// Forward handles one proxied action request.
func (p *Proxy) Forward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeProxyError(w, http.StatusBadRequest, "request body unreadable")
		return
	}

	key := p.cacheKey(body)

	if key != "" {
		if cached, err := p.cache.Get(ctx, key); err == nil {
			if validPayload(cached) {
				writeProxied(w, cached, "HIT")
				return
			}
			// Corrupted or stale-invalid entry: purge and refetch.
			if err := p.cache.Delete(ctx, key); err != nil {
				slog.Warn("cache purge failed", "key", key, "error", err)
			}
		} else if !isMiss(err) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
	}

	data, err := p.fetchOrigin(ctx, body)
	if err != nil {
		slog.Error("origin fetch failed", "error", err)
		writeProxyError(w, http.StatusBadGateway, "origin unreachable")
		return
	}

	status := "BYPASS"
	if key != "" {
		status = "MISS"
		if validPayload(data) {
			// Synchronous write so the next request is guaranteed a HIT.
			if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
				slog.Warn("cache write failed", "key", key, "error", err)
			}
		}
	}
	writeProxied(w, data, status)
}

// cacheKey returns "" when the request is not cacheable: unknown action,
// missing period, or a body that isn't the action protocol at all.
func (p *Proxy) cacheKey(body []byte) string {
	var req struct {
		Action string `json:"action"`
		Params struct {
			Period string `json:"period"`
		} `json:"params"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return ""
	}
	if !p.cacheable[req.Action] || req.Params.Period == "" {
		return ""
	}
	return cacheKeyPrefix + req.Action + ":" + req.Params.Period
}

func (p *Proxy) fetchOrigin(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.originURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// validPayload is the cache validity predicate: the payload must be a
// dashboard response whose overview section succeeded with data present.
func validPayload(payload []byte) bool {
	var probe struct {
		Overview struct {
			Success bool            `json:"success"`
			Data    json.RawMessage `json:"data"`
		} `json:"overview"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	if !probe.Overview.Success {
		return false
	}
	data := bytes.TrimSpace(probe.Overview.Data)
	return len(data) > 0 && !bytes.Equal(data, []byte("null"))
}

func isMiss(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func writeProxied(w http.ResponseWriter, payload []byte, cacheStatus string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheStatus)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func writeProxyError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
