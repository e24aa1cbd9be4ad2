package subscan

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ajuna-network/affiliate-fix/internal/circuitbreaker"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:        srv.URL + "/",
		APIKey:         "test-key",
		MaxAttempts:    3,
		BackoffInitial: time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
		Logger:         slogt.New(t),
	})
}

func writeEnvelope(w http.ResponseWriter, code int, message string, data string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"code":`+jsonInt(code)+`,"message":"`+message+`","generated_at":1700000000,"data":`+data+`}`)
}

func jsonInt(v int) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestListEvents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/scan/events", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		var q EventsQuery
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, EventsQuery{EventID: "AccountAffiliated", Page: 2, Row: 100}, q)

		writeEnvelope(w, 0, "Success", `{"count":201,"events":[
			{"event_index":"4123-7","block_num":4123,"extrinsic_index":"4123-2","module_id":"affiliates","event_id":"AccountAffiliated","block_timestamp":1700000000}
		]}`)
	})

	page, err := client.ListEvents(context.Background(), EventsQuery{EventID: "AccountAffiliated", Page: 2, Row: 100})
	require.NoError(t, err)
	assert.Equal(t, 201, page.Count)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "4123-7", page.Events[0].EventIndex)
	assert.Equal(t, int64(4123), page.Events[0].BlockNum)
}

func TestGetEvent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/scan/event", r.URL.Path)
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "4123-7", payload["event_index"])

		writeEnvelope(w, 0, "Success", `{"event_index":"4123-7","block_num":4123,"module_id":"affiliates","event_id":"AccountAffiliated","params":[
			{"type":"AccountId","type_name":"AccountIdFor","value":"0xd435","name":"to"},
			{"type":"AccountId","type_name":"AccountIdFor","value":{"Id":"0x8eaf"},"name":"from"}
		]}`)
	})

	event, err := client.GetEvent(context.Background(), "4123-7")
	require.NoError(t, err)
	require.Len(t, event.Params, 2)

	to, err := event.Params[0].StringValue()
	require.NoError(t, err)
	assert.Equal(t, "0xd435", to)

	from, err := event.Params[1].StringValue()
	require.NoError(t, err)
	assert.Equal(t, "0x8eaf", from)
}

func TestPost_RetriesTransientHTTPStatus(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		writeEnvelope(w, 0, "Success", `{"count":0,"events":[]}`)
	})

	page, err := client.ListEvents(context.Background(), EventsQuery{EventID: "AccountAffiliated", Row: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPost_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.GetEvent(context.Background(), "1-1")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "get event 1-1")
}

func TestPost_BreakerStopsCallsDuringOutage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(Options{
		BaseURL:            srv.URL,
		MaxAttempts:        3,
		BackoffInitial:     time.Millisecond,
		BackoffMax:         time.Millisecond,
		BreakerThreshold:   2,
		BreakerOpenTimeout: time.Hour,
		Logger:             slogt.New(t),
	})

	_, err := client.GetEvent(context.Background(), "1-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(2), calls.Load())

	_, err = client.GetEvent(context.Background(), "1-2")
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPost_APIErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(w, 10004, "Record Not Found", `null`)
	})

	_, err := client.GetEvent(context.Background(), "1-1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 10004, apiErr.Code)
}

func TestPost_EmptyDataIsTerminal(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(w, 0, "Success", `null`)
	})

	_, err := client.GetEvent(context.Background(), "1-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty data")
	assert.Equal(t, int32(1), calls.Load())
}

func TestPost_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, "Success", `{"count":0,"events":[]}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListEvents(ctx, EventsQuery{EventID: "AccountAffiliated"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEventParam_StringValue_Unsupported(t *testing.T) {
	_, err := EventParam{Name: "to", Value: json.RawMessage(`42`)}.StringValue()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "param to")
}
