package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRESTCache emulates the managed HTTP cache API: commands arrive as a
// JSON array and replies carry a "result" or "error" field.
type fakeRESTCache struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	token   string
}

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

func newFakeRESTCache(token string) *fakeRESTCache {
	return &fakeRESTCache{entries: map[string]fakeEntry{}, token: token}
}

func (f *fakeRESTCache) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		var command []string
		if err := json.NewDecoder(r.Body).Decode(&command); err != nil || len(command) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "malformed command"})
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		switch command[0] {
		case "GET":
			entry, ok := f.entries[command[1]]
			if !ok || time.Now().After(entry.expiresAt) {
				delete(f.entries, command[1])
				json.NewEncoder(w).Encode(map[string]any{"result": nil})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"result": entry.value})
		case "SET":
			seconds, _ := strconv.Atoi(command[4])
			f.entries[command[1]] = fakeEntry{
				value:     command[2],
				expiresAt: time.Now().Add(time.Duration(seconds) * time.Second),
			}
			json.NewEncoder(w).Encode(map[string]any{"result": "OK"})
		case "DEL":
			var n int64
			for _, key := range command[1:] {
				if _, ok := f.entries[key]; ok {
					delete(f.entries, key)
					n++
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"result": n})
		case "KEYS":
			matched := []string{}
			for key := range f.entries {
				if ok, _ := path.Match(command[1], key); ok {
					matched = append(matched, key)
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"result": matched})
		case "PING":
			json.NewEncoder(w).Encode(map[string]any{"result": "PONG"})
		default:
			json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf("unknown command %q", command[0])})
		}
	}
}

func setupRESTStore(t *testing.T) (*RESTStore, *fakeRESTCache) {
	t.Helper()

	fake := newFakeRESTCache("secret-token")
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	store, err := NewRESTStore(Config{
		RESTEndpoint:   server.URL,
		RESTToken:      "secret-token",
		RequestTimeout: 2 * time.Second,
	})
	require.NoError(t, err)

	return store, fake
}

func TestNewRESTStore_MissingEndpoint(t *testing.T) {
	_, err := NewRESTStore(Config{RESTToken: "t"})
	assert.Error(t, err)
}

func TestNewRESTStore_MissingToken(t *testing.T) {
	_, err := NewRESTStore(Config{RESTEndpoint: "https://cache.example.com"})
	assert.Error(t, err)
}

func TestRESTStore_GetMiss(t *testing.T) {
	store, _ := setupRESTStore(t)

	val, ok, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, val)
}

func TestRESTStore_SetExAndGet(t *testing.T) {
	store, _ := setupRESTStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetEx(ctx, "k", 30*time.Minute, `{"userId":"u1"}`))

	val, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"userId":"u1"}`, val)
}

func TestRESTStore_GetRawJSONResult(t *testing.T) {
	// Some deployments hand the stored document back as raw JSON rather
	// than a JSON-encoded string; both must decode to the original value.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"userId":"u1"}}`))
	}))
	defer server.Close()

	store, err := NewRESTStore(Config{RESTEndpoint: server.URL, RESTToken: "t"})
	require.NoError(t, err)

	val, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"userId":"u1"}`, val)
}

func TestRESTStore_Del(t *testing.T) {
	store, _ := setupRESTStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetEx(ctx, "a", time.Hour, "1"))
	require.NoError(t, store.SetEx(ctx, "b", time.Hour, "2"))

	n, err := store.Del(ctx, "a", "b", "absent")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRESTStore_DelNoKeys(t *testing.T) {
	store, _ := setupRESTStore(t)

	n, err := store.Del(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRESTStore_Keys(t *testing.T) {
	store, _ := setupRESTStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetEx(ctx, "member:u1:org_1", time.Hour, "{}"))
	require.NoError(t, store.SetEx(ctx, "member:u2:org_1", time.Hour, "{}"))

	keys, err := store.Keys(ctx, "member:u1:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"member:u1:org_1"}, keys)
}

func TestRESTStore_BadToken(t *testing.T) {
	fake := newFakeRESTCache("secret-token")
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	store, err := NewRESTStore(Config{RESTEndpoint: server.URL, RESTToken: "wrong"})
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestRESTStore_CommandError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"WRONGTYPE Operation against a key holding the wrong kind of value"}`))
	}))
	defer server.Close()

	store, err := NewRESTStore(Config{RESTEndpoint: server.URL, RESTToken: "t"})
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WRONGTYPE")
}

func TestRESTStore_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	store, err := NewRESTStore(Config{RESTEndpoint: server.URL, RESTToken: "t"})
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestRESTStore_EndpointUnreachable(t *testing.T) {
	store, err := NewRESTStore(Config{
		RESTEndpoint:   "http://127.0.0.1:1",
		RESTToken:      "t",
		RequestTimeout: 500 * time.Millisecond,
	})
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestRESTStore_SetExMinimumOneSecond(t *testing.T) {
	var captured []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"result":"OK"}`))
	}))
	defer server.Close()

	store, err := NewRESTStore(Config{RESTEndpoint: server.URL, RESTToken: "t"})
	require.NoError(t, err)

	require.NoError(t, store.SetEx(context.Background(), "k", 100*time.Millisecond, "v"))
	require.Len(t, captured, 5)
	assert.Equal(t, "1", captured[4])
}

func TestRESTStore_Ping(t *testing.T) {
	store, _ := setupRESTStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
