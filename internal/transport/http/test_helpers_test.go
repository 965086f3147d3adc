package http

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/anonrelay/anonrelay-server/internal/config"
	"github.com/anonrelay/anonrelay-server/internal/core"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	registry := core.NewRegistry()
	manager := core.NewManager(registry, core.NewTokenIssuer(), &logger)
	binder := core.NewBinder(registry, core.NewBroadcaster(&logger), &logger)

	server := NewServer(manager, binder, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func getJSON(t *testing.T, ts *httptest.Server, path string, params url.Values, wantStatus int, out any) {
	t.Helper()

	resp, err := ts.Client().Get(ts.URL + path + "?" + params.Encode())
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: expected status %d, got %d", path, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
}

func createChat(t *testing.T, ts *httptest.Server, chatType string, maxUsers int, name string) CreateChatResponse {
	t.Helper()

	var created CreateChatResponse
	getJSON(t, ts, "/createchat", url.Values{
		"chat_type":                {chatType},
		"auto_join":                {"true"},
		"max_users":                {fmt.Sprint(maxUsers)},
		"allow_dm_between_members": {"false"},
		"name":                     {name},
	}, 201, &created)

	return created
}

func authToken(t *testing.T, ts *httptest.Server, chatType, chatToken, name string) string {
	t.Helper()

	var token TokenResponse
	getJSON(t, ts, "/authtoken", url.Values{
		"chat_type":  {chatType},
		"chat_token": {chatToken},
		"name":       {name},
	}, 200, &token)

	return token.Token
}
