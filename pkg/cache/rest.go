package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RESTStore implements Store over an Upstash-style HTTP cache API. Each
// command is POSTed as a JSON array (["GET", key]) with bearer-token auth
// and the reply carries either a "result" or an "error" field.
type RESTStore struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewRESTStore creates an HTTP-backed store.
func NewRESTStore(config Config) (*RESTStore, error) {
	if config.RESTEndpoint == "" {
		return nil, fmt.Errorf("REST cache endpoint is required")
	}
	if config.RESTToken == "" {
		return nil, fmt.Errorf("REST cache token is required")
	}

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &RESTStore{
		endpoint: config.RESTEndpoint,
		token:    config.RESTToken,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

type restResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// do executes a single command and returns the raw result payload.
func (s *RESTStore) do(ctx context.Context, command []any) (json.RawMessage, error) {
	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cache request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache response: %w", err)
	}

	var parsed restResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("malformed cache response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("cache command failed: %s", parsed.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cache returned status %d", resp.StatusCode)
	}

	return parsed.Result, nil
}

// Get retrieves a value. The managed API may return the stored value either
// as a JSON string or as raw JSON; both decode to the same string the
// caller originally wrote.
func (s *RESTStore) Get(ctx context.Context, key string) (string, bool, error) {
	result, err := s.do(ctx, []any{"GET", key})
	if err != nil {
		return "", false, err
	}
	if isJSONNull(result) {
		return "", false, nil
	}

	var str string
	if err := json.Unmarshal(result, &str); err == nil {
		return str, true, nil
	}
	return string(result), true, nil
}

// SetEx stores a value with an expiry in whole seconds.
func (s *RESTStore) SetEx(ctx context.Context, key string, ttl time.Duration, value string) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	_, err := s.do(ctx, []any{"SET", key, value, "EX", strconv.FormatInt(seconds, 10)})
	return err
}

// Del removes keys and reports how many were removed.
func (s *RESTStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	command := make([]any, 0, len(keys)+1)
	command = append(command, "DEL")
	for _, k := range keys {
		command = append(command, k)
	}

	result, err := s.do(ctx, command)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := json.Unmarshal(result, &n); err != nil {
		return 0, fmt.Errorf("unexpected DEL result %q: %w", string(result), err)
	}
	return n, nil
}

// Keys lists keys matching a glob-style pattern.
func (s *RESTStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	result, err := s.do(ctx, []any{"KEYS", pattern})
	if err != nil {
		return nil, err
	}

	var keys []string
	if err := json.Unmarshal(result, &keys); err != nil {
		return nil, fmt.Errorf("unexpected KEYS result %q: %w", string(result), err)
	}
	return keys, nil
}

// Ping verifies the endpoint is reachable and the token is accepted.
func (s *RESTStore) Ping(ctx context.Context) error {
	_, err := s.do(ctx, []any{"PING"})
	return err
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
