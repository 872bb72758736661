// Package gremlin implements a minimal Gremlin Server client over
// WebSocket, targeting the Cosmos DB Gremlin API. It speaks the GraphSON
// 2.0 wire format, the only serializer Cosmos supports.
package gremlin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	mimeType = "application/vnd.gremlin-v2.0+json"

	statusSuccess        = 200
	statusNoContent      = 204
	statusPartialContent = 206
	statusAuthenticate   = 407
)

// Config holds the Cosmos DB Gremlin connection settings.
type Config struct {
	AccountName string
	PrimaryKey  string
	Database    string
	Graph       string
	// Endpoint overrides the derived wss:// URL. Used for local emulators
	// and tests.
	Endpoint string
}

// URL returns the WebSocket endpoint for the account.
func (c Config) URL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("wss://%s.gremlin.cosmos.azure.com:443/", c.AccountName)
}

// Username returns the Cosmos resource path used as the Gremlin username.
func (c Config) Username() string {
	return fmt.Sprintf("/dbs/%s/colls/%s", c.Database, c.Graph)
}

// Client is a Gremlin Server connection. Submit serialises requests, so a
// single Client is safe for concurrent use; each query runs one at a time
// over the underlying socket.
type Client struct {
	cfg Config

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient returns an unconnected client. The connection is established
// on the first Submit; use Dial to connect eagerly.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Dial opens a WebSocket connection to the configured Gremlin endpoint.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	conn, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, conn: conn}, nil
}

func dial(ctx context.Context, cfg Config) (*websocket.Conn, error) {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 15 * time.Second

	conn, resp, err := dialer.DialContext(ctx, cfg.URL(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial gremlin %s: %w (status %s)", cfg.URL(), err, resp.Status)
		}
		return nil, fmt.Errorf("dial gremlin %s: %w", cfg.URL(), err)
	}

	slog.Debug("Connected to Gremlin endpoint", "url", cfg.URL())
	return conn, nil
}

// Close shuts down the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// request is the Gremlin Server request frame body.
type request struct {
	RequestID string         `json:"requestId"`
	Op        string         `json:"op"`
	Processor string         `json:"processor"`
	Args      map[string]any `json:"args"`
}

// response is the Gremlin Server response frame body.
type response struct {
	RequestID string `json:"requestId"`
	Status    struct {
		Code       int            `json:"code"`
		Message    string         `json:"message"`
		Attributes map[string]any `json:"attributes"`
	} `json:"status"`
	Result struct {
		Data []any `json:"data"`
	} `json:"result"`
}

// Submit executes a Gremlin query with optional bindings and returns the
// flattened result records. It implements schema.GraphStore.
func (c *Client) Submit(ctx context.Context, query string, bindings map[string]any) ([]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		conn, err := dial(ctx, c.cfg)
		if err != nil {
			return nil, err
		}
		c.conn = conn
	}

	id := uuid.NewString()
	args := map[string]any{
		"gremlin":  query,
		"language": "gremlin-groovy",
	}
	if len(bindings) > 0 {
		args["bindings"] = bindings
	}

	if err := c.write(request{RequestID: id, Op: "eval", Processor: "", Args: args}); err != nil {
		return nil, fmt.Errorf("gremlin: send query: %w", err)
	}

	var results []any
	for {
		if deadline, ok := ctx.Deadline(); ok {
			_ = c.conn.SetReadDeadline(deadline)
		}
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("gremlin: read response: %w", err)
		}

		var resp response
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("gremlin: decode response: %w", err)
		}
		if resp.RequestID != id {
			// Stale frame from an earlier aborted request; skip it.
			continue
		}

		switch resp.Status.Code {
		case statusAuthenticate:
			if err := c.authenticate(id); err != nil {
				return nil, err
			}
		case statusPartialContent:
			results = append(results, resp.Result.Data...)
		case statusSuccess:
			results = append(results, resp.Result.Data...)
			return results, nil
		case statusNoContent:
			return results, nil
		default:
			return nil, fmt.Errorf("gremlin: query failed: %d %s", resp.Status.Code, resp.Status.Message)
		}
	}
}

// authenticate answers a 407 challenge with the SASL PLAIN payload Cosmos
// expects: base64("\x00" + username + "\x00" + key).
func (c *Client) authenticate(requestID string) error {
	sasl := base64.StdEncoding.EncodeToString(
		[]byte("\x00" + c.cfg.Username() + "\x00" + c.cfg.PrimaryKey))

	err := c.write(request{
		RequestID: requestID,
		Op:        "authentication",
		Processor: "",
		Args:      map[string]any{"sasl": sasl},
	})
	if err != nil {
		return fmt.Errorf("gremlin: authenticate: %w", err)
	}
	return nil
}

// write frames req with the mime-type length prefix and sends it as a
// binary message.
func (c *Client) write(req request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	frame := make([]byte, 0, 1+len(mimeType)+len(body))
	frame = append(frame, byte(len(mimeType)))
	frame = append(frame, mimeType...)
	frame = append(frame, body...)
	return c.conn.WriteMessage(websocket.BinaryMessage, frame)
}
