// Package compile proxies code execution to a JDoodle-compatible service.
// The editor core never runs code; this is a side door for the "Run" button.
package compile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dkeye/CodeSync/internal/domain"
)

const DefaultEndpoint = "https://api.jdoodle.com/v1/execute"

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrUpstream            = errors.New("execution service failed")
)

// Executor runs a script and returns the service's raw JSON answer.
type Executor interface {
	Execute(ctx context.Context, code string, lang domain.Language) (json.RawMessage, error)
}

type target struct {
	name         string
	versionIndex string
}

var targets = map[domain.Language]target{
	domain.LangPython3:    {name: "python3", versionIndex: "3"},
	domain.LangJava:       {name: "java", versionIndex: "3"},
	domain.LangSQL:        {name: "sql", versionIndex: "3"},
	domain.LangJavaScript: {name: "nodejs", versionIndex: "3"},
	domain.LangC:          {name: "c", versionIndex: "4"},
	domain.LangCPP:        {name: "cpp", versionIndex: "4"},
}

// Supported reports whether lang can be executed.
func Supported(lang domain.Language) bool {
	_, ok := targets[lang]
	return ok
}

type Config struct {
	Endpoint     string        `mapstructure:"endpoint"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type JDoodleClient struct {
	endpoint     string
	clientID     string
	clientSecret string
	client       *http.Client
}

func NewJDoodleClient(cfg Config) *JDoodleClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &JDoodleClient{
		endpoint:     endpoint,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		client:       &http.Client{Timeout: timeout},
	}
}

type executeRequest struct {
	Script       string `json:"script"`
	Language     string `json:"language"`
	VersionIndex string `json:"versionIndex"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

func (c *JDoodleClient) Execute(ctx context.Context, code string, lang domain.Language) (json.RawMessage, error) {
	t, ok := targets[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	body, err := json.Marshal(executeRequest{
		Script:       code,
		Language:     t.name,
		VersionIndex: t.versionIndex,
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrUpstream, resp.StatusCode, string(respBody))
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrUpstream)
	}
	return json.RawMessage(respBody), nil
}
