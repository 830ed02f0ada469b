package classifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teplocom/support-triage/internal/config"
	"github.com/teplocom/support-triage/internal/domain"
	"github.com/teplocom/support-triage/internal/knowledge"
)

// KnowledgeSearcher supplies reference documents for prompt enrichment.
type KnowledgeSearcher interface {
	Search(query string, topK int) []knowledge.Result
}

// VerdictCache short-circuits repeat classifications. Both methods are
// best-effort; a miss always falls through to the remote call.
type VerdictCache interface {
	Get(ctx context.Context, key string) (*domain.Verdict, bool)
	Set(ctx context.Context, key string, verdict *domain.Verdict)
}

// CacheKeyFunc derives the cache key for a message.
type CacheKeyFunc func(subject, body string) string

// GatewayDeps bundles optional collaborators for the gateway.
type GatewayDeps struct {
	Knowledge KnowledgeSearcher
	Cache     VerdictCache
	CacheKey  CacheKeyFunc
	Logger    *zap.Logger
}

// Gateway mediates all calls to the remote classification service,
// including the access token lifecycle. The cached token is shared across
// concurrent Classify calls; refresh is serialized behind a mutex.
type Gateway struct {
	cfg    config.GigaChatConfig
	client *http.Client
	kb     KnowledgeSearcher
	cache  VerdictCache
	keyFn  CacheKeyFunc
	logger *zap.Logger

	mu           sync.Mutex
	token        string
	tokenExpires time.Time
}

// NewGateway validates credentials and builds the gateway. Missing
// credentials are a configuration error and must abort startup.
func NewGateway(cfg config.GigaChatConfig, deps GatewayDeps) (*Gateway, error) {
	if cfg.AuthKey == "" || cfg.ClientID == "" {
		return nil, errors.New("gigachat credentials not configured")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{}
	if cfg.InsecureSkipVerify {
		// The GigaChat endpoints present certificates from the Russian
		// trust store, which is absent on most hosts.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Transport: transport},
		kb:     deps.Knowledge,
		cache:  deps.Cache,
		keyFn:  deps.CacheKey,
		logger: logger,
	}, nil
}

// Classify analyzes one inbound message and always returns a usable verdict.
// Remote failures of any kind degrade to the deterministic fallback.
func (g *Gateway) Classify(ctx context.Context, body, subject, sender string) *domain.Verdict {
	var cacheKey string
	if g.cache != nil && g.keyFn != nil {
		cacheKey = g.keyFn(subject, body)
		if verdict, ok := g.cache.Get(ctx, cacheKey); ok {
			g.logger.Debug("verdict served from cache")
			return verdict
		}
	}

	verdict, err := g.classifyRemote(ctx, body, subject, sender)
	if err != nil {
		g.logger.Warn("remote classification unavailable; using fallback", zap.Error(err))
		return Fallback(body)
	}

	if cacheKey != "" {
		g.cache.Set(ctx, cacheKey, verdict)
	}
	return verdict
}

func (g *Gateway) classifyRemote(ctx context.Context, body, subject, sender string) (*domain.Verdict, error) {
	if err := g.ensureToken(ctx); err != nil {
		return nil, fmt.Errorf("ensure token: %w", err)
	}

	var docs []knowledge.Result
	if g.kb != nil {
		docs = g.kb.Search(body, enrichmentTopK)
	}

	answer, err := g.complete(ctx, buildPrompt(body, subject, sender, docs))
	if err != nil {
		return nil, err
	}
	return parseVerdict(answer)
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *Gateway) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:       g.cfg.Model,
		Messages:    []completionMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.CompletionsURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.currentToken())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// verdictPayload mirrors the JSON object the model is instructed to return.
type verdictPayload struct {
	FullName      string `json:"full_name"`
	ObjectName    string `json:"object_name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	SerialNumbers string `json:"serial_numbers"`
	DeviceType    string `json:"device_type"`
	Sentiment     string `json:"sentiment"`
	IssueSummary  string `json:"issue_summary"`
	Decision      string `json:"decision"`
	DraftReply    string `json:"draft_reply"`
}

// parseVerdict extracts and validates the JSON object from the model's
// answer. The answer may carry explanatory text around the payload; only
// the substring between the first '{' and the last '}' is parsed.
func parseVerdict(answer string) (*domain.Verdict, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end <= start {
		return nil, errors.New("answer contains no JSON object")
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(answer[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}

	decision := domain.ParseDecision(payload.Decision)
	if decision.SendsMail() && strings.TrimSpace(payload.DraftReply) == "" {
		return nil, fmt.Errorf("verdict %q lacks draft_reply", decision)
	}

	return &domain.Verdict{
		FullName:      payload.FullName,
		ObjectName:    payload.ObjectName,
		Phone:         payload.Phone,
		Email:         payload.Email,
		SerialNumbers: payload.SerialNumbers,
		DeviceType:    payload.DeviceType,
		Sentiment:     domain.ParseSentiment(payload.Sentiment),
		IssueSummary:  payload.IssueSummary,
		Decision:      decision,
		DraftReply:    payload.DraftReply,
	}, nil
}

func (g *Gateway) currentToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// ensureToken guarantees a valid access token before a completion request.
// Idempotent; a token already inside its lifetime is left untouched.
func (g *Gateway) ensureToken(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && time.Now().Before(g.tokenExpires) {
		return nil
	}
	return g.authenticateLocked(ctx)
}

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// authenticateLocked performs the OAuth exchange. Callers hold g.mu.
func (g *Gateway) authenticateLocked(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout())
	defer cancel()

	form := url.Values{"scope": {g.cfg.Scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.OAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Authorization", "Basic "+g.cfg.AuthKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oauth request returned %d", resp.StatusCode)
	}

	var parsed oauthResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode oauth response: %w", err)
	}
	if parsed.AccessToken == "" {
		return errors.New("oauth response has no access_token")
	}

	g.token = parsed.AccessToken
	g.tokenExpires = expiryFrom(parsed.ExpiresAt, g.cfg.TokenTTL())
	g.logger.Debug("access token refreshed", zap.Time("expires", g.tokenExpires))
	return nil
}

// expiryFrom interprets the OAuth expires_at value. The service reports
// unix milliseconds; unix seconds are accepted too, and a missing value
// falls back to the configured TTL.
func expiryFrom(expiresAt int64, ttl time.Duration) time.Time {
	switch {
	case expiresAt > 1_000_000_000_000:
		return time.UnixMilli(expiresAt)
	case expiresAt > 0:
		return time.Unix(expiresAt, 0)
	default:
		return time.Now().Add(ttl)
	}
}

// expireToken invalidates the cached token.
func (g *Gateway) expireToken() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokenExpires = time.Now().Add(-time.Second)
}
