package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// PerpAsset is one entry of the perpetual universe.
type PerpAsset struct {
	Name        string `json:"name"`
	SzDecimals  int    `json:"szDecimals"`
	MaxLeverage int    `json:"maxLeverage"`
	IsDelisted  bool   `json:"isDelisted"`
}

// PerpMeta is the response of the "meta" info request.
type PerpMeta struct {
	Universe []PerpAsset `json:"universe"`
	// Error is set when the response body could not be parsed.
	Error string `json:"error"`
}

// SpotPair is one entry of the spot universe. Tokens holds [base, quote] token indexes.
type SpotPair struct {
	Name        string `json:"name"`
	Tokens      []int  `json:"tokens"`
	Index       int    `json:"index"`
	IsCanonical bool   `json:"isCanonical"`
}

// SpotToken describes a spot token.
type SpotToken struct {
	Name       string `json:"name"`
	Index      int    `json:"index"`
	SzDecimals int    `json:"szDecimals"`
	TokenID    string `json:"tokenId"`
}

// SpotMeta is the response of the "spotMeta" info request.
type SpotMeta struct {
	Universe []SpotPair  `json:"universe"`
	Tokens   []SpotToken `json:"tokens"`
	Error    string      `json:"error"`
}

// HyperliquidAPI is a Hyperliquid REST client. It must be opened before use
// and closed when done; calls outside that scope fail with ErrNotConnected.
type HyperliquidAPI struct {
	logger  *slog.Logger
	baseURL string
	timeout time.Duration

	mu      sync.RWMutex
	session *http.Client
}

// NewHyperliquidAPI creates a new REST client for baseURL.
func NewHyperliquidAPI(logger *slog.Logger, baseURL string, timeout time.Duration) *HyperliquidAPI {
	return &HyperliquidAPI{
		logger:  logger,
		baseURL: baseURL,
		timeout: timeout,
	}
}

// Open acquires the HTTP session. Opening an open client is a no-op.
func (a *HyperliquidAPI) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		return nil
	}
	a.session = &http.Client{
		Timeout:   a.timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
	return nil
}

// Close releases the HTTP session. It is safe to call more than once.
func (a *HyperliquidAPI) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return nil
	}
	a.session.CloseIdleConnections()
	a.session = nil
	return nil
}

func (a *HyperliquidAPI) client() (*http.Client, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.session == nil {
		return nil, fmt.Errorf("HyperliquidAPI: %w", ErrNotConnected)
	}
	return a.session, nil
}

// Post sends payload as JSON to path and returns the response body.
// A 2xx/3xx body that is not valid JSON is replaced by {"error": "could not parse: <body>"}.
func (a *HyperliquidAPI) Post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	client, err := a.client()
	if err != nil {
		return nil, err
	}

	if payload == nil {
		payload = struct{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	url := a.baseURL + path
	a.logger.Debug("HyperliquidAPI: POST", "url", url, "payload", string(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: string(raw)}
	case resp.StatusCode >= 400:
		return nil, newClientError(resp.StatusCode, resp.Header, raw)
	}

	if !json.Valid(raw) {
		a.logger.Warn("HyperliquidAPI: could not parse response", "path", path, "status", resp.StatusCode)
		placeholder, _ := json.Marshal(map[string]string{"error": "could not parse: " + string(raw)})
		return placeholder, nil
	}
	return raw, nil
}

func (a *HyperliquidAPI) info(ctx context.Context, payload map[string]string, out any) error {
	raw, err := a.Post(ctx, "/info", payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", payload["type"], err)
	}
	return nil
}

// Meta returns the perpetual universe of dex ("" for the default dex).
func (a *HyperliquidAPI) Meta(ctx context.Context, dex string) (*PerpMeta, error) {
	var meta PerpMeta
	if err := a.info(ctx, map[string]string{"type": "meta", "dex": dex}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// SpotMeta returns the spot universe and token table.
func (a *HyperliquidAPI) SpotMeta(ctx context.Context) (*SpotMeta, error) {
	var meta SpotMeta
	if err := a.info(ctx, map[string]string{"type": "spotMeta"}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// MetaAndAssetCtxs returns the perpetual universe with asset contexts, undecoded.
func (a *HyperliquidAPI) MetaAndAssetCtxs(ctx context.Context) (json.RawMessage, error) {
	return a.Post(ctx, "/info", map[string]string{"type": "metaAndAssetCtxs"})
}

// SpotMetaAndAssetCtxs returns the spot universe with asset contexts, undecoded.
func (a *HyperliquidAPI) SpotMetaAndAssetCtxs(ctx context.Context) (json.RawMessage, error) {
	return a.Post(ctx, "/info", map[string]string{"type": "spotMetaAndAssetCtxs"})
}

// PerpDexs returns the list of perpetual dexs, undecoded.
func (a *HyperliquidAPI) PerpDexs(ctx context.Context) (json.RawMessage, error) {
	return a.Post(ctx, "/info", map[string]string{"type": "perpDexs"})
}
