package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/banxian-ai/server/internal/agent/model"
	logx "github.com/banxian-ai/server/pkg/logger"
)

// Client posts string-valued form fields to the divination endpoints. Every
// call carries the shared api_key field and honors a fixed per-call timeout.
type Client struct {
	httpc  *http.Client
	apiKey string
}

func NewClient(config model.ToolsConfig) *Client {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpc:  &http.Client{Timeout: timeout},
		apiKey: config.MingliKey,
	}
}

// PostForm sends the fields as a form-encoded POST and returns the raw body.
// Any non-200 status is an error; callers convert it to a ToolOutcome.
func (c *Client) PostForm(ctx context.Context, endpoint string, fields map[string]string) ([]byte, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint not configured")
	}

	form := url.Values{}
	form.Set("api_key", c.apiKey)
	for k, v := range fields {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post form: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logx.Warn().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("divination endpoint returned non-200")
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// SearchClient queries a SerpAPI-compatible web search endpoint.
type SearchClient struct {
	httpc   *http.Client
	baseURL string
	apiKey  string
}

func NewSearchClient(config model.ToolsConfig) *SearchClient {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SearchClient{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: config.SearchURL,
		apiKey:  config.SearchKey,
	}
}

type searchResponse struct {
	AnswerBox struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answer_box"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search returns a compact textual digest of the top results.
func (s *SearchClient) Search(ctx context.Context, query string) (string, error) {
	if s.baseURL == "" {
		return "", fmt.Errorf("search endpoint not configured")
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("google_domain", "google.com")
	params.Set("gl", "us")
	params.Set("hl", "zh-cn")
	params.Set("q", query)
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	if parsed.AnswerBox.Answer != "" {
		return parsed.AnswerBox.Answer, nil
	}
	if parsed.AnswerBox.Snippet != "" {
		return parsed.AnswerBox.Snippet, nil
	}

	var b strings.Builder
	for i, r := range parsed.OrganicResults {
		if i >= 3 {
			break
		}
		if r.Snippet == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Snippet)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no usable search results")
	}
	return b.String(), nil
}

// KnowledgeBase is the local-knowledge lookup capability. Retrieval backends
// (vector stores etc.) live behind this interface.
type KnowledgeBase interface {
	Lookup(ctx context.Context, query string) ([]string, error)
}

// HTTPKnowledgeBase queries a retrieval service over JSON.
type HTTPKnowledgeBase struct {
	httpc   *http.Client
	baseURL string
}

func NewHTTPKnowledgeBase(config model.ToolsConfig) *HTTPKnowledgeBase {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPKnowledgeBase{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: config.KnowledgeURL,
	}
}

func (k *HTTPKnowledgeBase) Lookup(ctx context.Context, query string) ([]string, error) {
	if k.baseURL == "" {
		return nil, fmt.Errorf("knowledge endpoint not configured")
	}

	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := k.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("knowledge lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed struct {
		Documents []string `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode knowledge response: %w", err)
	}
	return parsed.Documents, nil
}

var _ KnowledgeBase = (*HTTPKnowledgeBase)(nil)
