package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajuna-network/affiliate-fix/internal/ratelimit"
	"github.com/gorilla/websocket"
)

const (
	defaultDialTimeout = 30 * time.Second
	defaultCallTimeout = 60 * time.Second

	// Runtime metadata responses run to several megabytes.
	maxMessageSize = 64 << 20
)

type RPCClient interface {
	GetBlockHash(ctx context.Context, number uint64) (string, error)
	GetGenesisHash(ctx context.Context) (string, error)
	GetMetadata(ctx context.Context) (string, error)
	GetRuntimeVersion(ctx context.Context) (*RuntimeVersion, error)
	GetSystemChain(ctx context.Context) (string, error)
	Close() error
}

type Options struct {
	DialTimeout time.Duration
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// Client is a JSON-RPC client over a single websocket connection. Calls are
// serialized; a response is matched to its request by id.
type Client struct {
	conn        *websocket.Conn
	endpoint    string
	callTimeout time.Duration
	logger      *slog.Logger

	mu        sync.Mutex
	requestID atomic.Int64
	closed    atomic.Bool
}

var _ RPCClient = (*Client)(nil)

func Dial(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	dialCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	started := time.Now()
	conn, resp, err := dialer.DialContext(dialCtx, endpoint, nil)
	ratelimit.RecordCall("chain", "dial", started, err)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: http status %d: %w", endpoint, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	conn.SetReadLimit(maxMessageSize)

	opts.Logger.Debug("chain rpc connected", "endpoint", endpoint)
	return &Client{
		conn:        conn,
		endpoint:    endpoint,
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
	}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, params []interface{}) (result json.RawMessage, err error) {
	if c.closed.Load() {
		return nil, errors.New("client closed")
	}

	started := time.Now()
	defer func() { ratelimit.RecordCall("chain", method, started, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	id := int(c.requestID.Add(1))
	req := Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}
	if req.Params == nil {
		req.Params = []interface{}{}
	}

	deadline, _ := ctx.Deadline()
	// Unblock a pending read when ctx ends before the deadline.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("write request: %w", c.contextErr(ctx, err))
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", c.contextErr(ctx, err))
		}

		var rpcResp Response
		if err := json.Unmarshal(raw, &rpcResp); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		if rpcResp.ID != id {
			c.logger.Debug("skipping unrelated rpc message", "method", rpcResp.Method, "id", rpcResp.ID, "want_id", id)
			continue
		}
		if rpcResp.Error != nil {
			return nil, rpcResp.Error
		}
		return rpcResp.Result, nil
	}
}

// contextErr prefers the context error when a deadline set from ctx caused err.
func (c *Client) contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return err
}
