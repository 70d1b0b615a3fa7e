package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/truthguard/internal/extract"
	"github.com/ppiankov/truthguard/internal/util"
)

const maxResponseBytes = 4 << 20

// newHTTPClient builds a client that honours the configured proxies
func newHTTPClient(config Config, defaultTimeout time.Duration) *http.Client {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy)

	return &http.Client{Timeout: timeout, Transport: transport}
}

// apiErrorMessage extracts a provider's error message from a failed response body
type apiErrorMessage func(body []byte) string

// doJSON sends in (when non-nil) as JSON and decodes a 200 response into out
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, in, out interface{}, errMsg apiErrorMessage) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if errMsg != nil {
			if msg := errMsg(respBody); msg != "" {
				return fmt.Errorf("API error (%d): %s", resp.StatusCode, msg)
			}
		}
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// callSettings are the prompt, model and token budget of one provider call
type callSettings struct {
	prompt    string
	model     string
	maxTokens int
}

// resolveSettings fills request gaps from provider config, then defaults
func resolveSettings(req SummarizeRequest, config Config, defaultModel string) callSettings {
	s := callSettings{prompt: req.Prompt, model: req.Model, maxTokens: req.MaxTokens}
	if s.prompt == "" {
		s.prompt = BuildPrompt(req.Report, req.EvidenceURLs)
	}
	if s.model == "" {
		s.model = config.Model
	}
	if s.model == "" {
		s.model = defaultModel
	}
	if s.maxTokens == 0 {
		s.maxTokens = config.MaxTokens
	}
	if s.maxTokens == 0 {
		s.maxTokens = 1000
	}
	return s
}

// finishSummary checks the model's citations and assembles the response
func finishSummary(config Config, req SummarizeRequest, text, model string, tokens int) (*SummarizeResponse, error) {
	summary := strings.TrimSpace(text)
	citedURLs := extract.ExtractURLs(summary)

	if err := verifyCitations(config.StrictEvidence, req.EvidenceURLs, citedURLs); err != nil {
		return nil, err
	}

	return &SummarizeResponse{
		Summary:    summary,
		CitedURLs:  citedURLs,
		Model:      model,
		TokensUsed: tokens,
	}, nil
}
