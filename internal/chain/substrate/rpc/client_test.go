package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(conn *websocket.Conn, req Request)

func newTestServer(t *testing.T, handle handlerFunc) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			handle(conn, req)
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialTest(t *testing.T, url string, callTimeout time.Duration) *Client {
	t.Helper()
	client, err := Dial(context.Background(), url, Options{CallTimeout: callTimeout, Logger: slog.Default()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func reply(conn *websocket.Conn, id int, result string) {
	_ = conn.WriteJSON(Response{JSONRPC: "2.0", ID: id, Result: json.RawMessage(result)})
}

func TestCall_Success(t *testing.T) {
	url := newTestServer(t, func(conn *websocket.Conn, req Request) {
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "system_testMethod", req.Method)
		assert.Equal(t, []interface{}{"p1"}, req.Params)
		reply(conn, req.ID, `"0x2a"`)
	})
	client := dialTest(t, url, time.Second)

	result, err := client.call(context.Background(), "system_testMethod", []interface{}{"p1"})
	require.NoError(t, err)

	var value string
	require.NoError(t, json.Unmarshal(result, &value))
	assert.Equal(t, "0x2a", value)
}

func TestCall_SendsEmptyParamsArray(t *testing.T) {
	url := newTestServer(t, func(conn *websocket.Conn, req Request) {
		assert.NotNil(t, req.Params)
		assert.Empty(t, req.Params)
		reply(conn, req.ID, `null`)
	})
	client := dialTest(t, url, time.Second)

	_, err := client.call(context.Background(), "system_health", nil)
	require.NoError(t, err)
}

func TestCall_RPCError(t *testing.T) {
	url := newTestServer(t, func(conn *websocket.Conn, req Request) {
		_ = conn.WriteJSON(Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32602, Message: "Invalid params"},
		})
	})
	client := dialTest(t, url, time.Second)

	_, err := client.call(context.Background(), "chain_getBlockHash", []interface{}{"x"})
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.RPCCode())
	assert.Contains(t, err.Error(), "Invalid params")
}

func TestCall_SkipsNotificationsAndStaleIDs(t *testing.T) {
	url := newTestServer(t, func(conn *websocket.Conn, req Request) {
		_ = conn.WriteJSON(Response{JSONRPC: "2.0", Method: "state_storage", Result: json.RawMessage(`{}`)})
		reply(conn, req.ID+100, `"stale"`)
		reply(conn, req.ID, `"fresh"`)
	})
	client := dialTest(t, url, time.Second)

	result, err := client.call(context.Background(), "system_chain", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"fresh"`, string(result))
}

func TestCall_RequestIDsIncrease(t *testing.T) {
	var (
		mu  sync.Mutex
		ids []int
	)
	url := newTestServer(t, func(conn *websocket.Conn, req Request) {
		mu.Lock()
		ids = append(ids, req.ID)
		mu.Unlock()
		reply(conn, req.ID, `"ok"`)
	})
	client := dialTest(t, url, time.Second)

	for i := 0; i < 3; i++ {
		_, err := client.call(context.Background(), "system_chain", nil)
		require.NoError(t, err)
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestCall_TimeoutWhenNodeIsSilent(t *testing.T) {
	url := newTestServer(t, func(*websocket.Conn, Request) {})
	client := dialTest(t, url, 50*time.Millisecond)

	_, err := client.call(context.Background(), "state_getMetadata", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestCall_ContextCanceled(t *testing.T) {
	url := newTestServer(t, func(*websocket.Conn, Request) {})
	client := dialTest(t, url, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := client.call(ctx, "state_getMetadata", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCall_AfterClose(t *testing.T) {
	url := newTestServer(t, func(conn *websocket.Conn, req Request) { reply(conn, req.ID, `"ok"`) })
	client := dialTest(t, url, time.Second)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err := client.call(context.Background(), "system_chain", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client closed")
}

func TestDial_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), Options{DialTimeout: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http status 403")
}
