// Package gateway issues HTTP calls to remote game servers and normalizes
// their failures. It never retries; errors go straight back to the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/playperu/superadmin/internal/apperr"
	"github.com/playperu/superadmin/internal/games"
	"github.com/playperu/superadmin/internal/metrics"
)

const maxBodyBytes = 10 << 20

// Response is a remote reply with a JSON body. Bodies that are not JSON are
// wrapped as a JSON string; an empty body is null.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

type Client struct {
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New returns a Client. A nil httpClient uses http.DefaultClient so
// transport defaults apply.
func New(httpClient *http.Client, logger *slog.Logger, m *metrics.Metrics) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, logger: logger, metrics: m}
}

// Invoke calls path on the game's server.
func (c *Client) Invoke(ctx context.Context, game games.Game, path, method string, payload any) (Response, error) {
	return c.do(ctx, game, "custom", game.URL(path), method, payload)
}

// Call resolves op on the game before calling it.
func (c *Client) Call(ctx context.Context, game games.Game, op games.Operation, method string, payload any) (Response, error) {
	u, err := game.OperationURL(op)
	if err != nil {
		return Response{}, err
	}
	return c.do(ctx, game, string(op), u, method, payload)
}

// CreatedSession is what a game server returns for createSession.
type CreatedSession struct {
	AdminLink  string
	PlayerLink string
	SessionID  string
}

// CreateSession posts payload to the game's createSession endpoint and
// requires both links in the reply.
func (c *Client) CreateSession(ctx context.Context, game games.Game, payload any) (CreatedSession, error) {
	resp, err := c.Call(ctx, game, games.OpCreateSession, http.MethodPost, payload)
	if err != nil {
		return CreatedSession{}, err
	}

	u, _ := game.OperationURL(games.OpCreateSession)
	violation := func(msg string, cause error) error {
		err := &RemoteError{
			Kind: ErrContractViolation, GameID: game.GameID, Method: http.MethodPost, URL: u,
			StatusCode: resp.StatusCode, Message: msg, Err: cause,
		}
		c.logger.Warn("remote game broke the createSession contract",
			"game", game.GameID, "url", u, "error", err)
		return err
	}

	var body struct {
		Data struct {
			AdminLink  string          `json:"adminLink"`
			PlayerLink string          `json:"playerLink"`
			SessionID  json.RawMessage `json:"sessionId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return CreatedSession{}, violation("response is not a session object", err)
	}
	if body.Data.AdminLink == "" || body.Data.PlayerLink == "" {
		return CreatedSession{}, violation("response is missing adminLink or playerLink", nil)
	}

	return CreatedSession{
		AdminLink:  body.Data.AdminLink,
		PlayerLink: body.Data.PlayerLink,
		SessionID:  scalarString(body.Data.SessionID),
	}, nil
}

func (c *Client) do(ctx context.Context, game games.Game, op, rawURL, method string, payload any) (Response, error) {
	method = strings.ToUpper(method)
	req, err := newRequest(ctx, method, rawURL, payload)
	if err != nil {
		return Response{}, err
	}

	start := time.Now()
	resp, err := c.send(req, game)
	c.metrics.ObserveRemote(game.GameID, op, outcome(err), time.Since(start))
	if err != nil {
		c.logger.Warn("remote game call failed",
			"game", game.GameID, "operation", op, "method", method, "url", rawURL, "error", err)
		return Response{}, err
	}

	c.logger.Debug("remote game call",
		"game", game.GameID, "operation", op, "method", method, "url", rawURL,
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return resp, nil
}

func (c *Client) send(req *http.Request, game games.Game) (Response, error) {
	remoteErr := func(kind error, status int, msg string, cause error) *RemoteError {
		return &RemoteError{
			Kind: kind, GameID: game.GameID, Method: req.Method, URL: req.URL.String(),
			StatusCode: status, Message: msg, Err: cause,
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, remoteErr(ErrRemoteUnavailable, 0, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, remoteErr(ErrRemoteUnavailable, resp.StatusCode, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, remoteErr(ErrRemoteRejected, resp.StatusCode, rejectionMessage(resp.StatusCode, raw), nil)
	}
	return Response{StatusCode: resp.StatusCode, Body: asJSON(raw)}, nil
}

func newRequest(ctx context.Context, method, rawURL string, payload any) (*http.Request, error) {
	var body io.Reader
	var data []byte
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return nil, apperr.Validation("payload is not JSON encodable: %v", err)
		}
		if string(data) == "null" {
			data = nil
		}
	}

	if method == http.MethodGet || method == http.MethodHead {
		if len(data) > 0 {
			q, err := queryFromJSON(data)
			if err != nil {
				return nil, err
			}
			u, err := url.Parse(rawURL)
			if err != nil {
				return nil, apperr.Validation("invalid remote URL %q", rawURL)
			}
			merged := u.Query()
			for k, vs := range q {
				for _, v := range vs {
					merged.Add(k, v)
				}
			}
			u.RawQuery = merged.Encode()
			rawURL = u.String()
		}
	} else if len(data) > 0 {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, apperr.Validation("building remote request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// queryFromJSON flattens a JSON object into query parameters. Nested values
// are sent as their JSON text.
func queryFromJSON(data []byte) (url.Values, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, apperr.Validation("a GET payload must be a JSON object")
	}
	q := url.Values{}
	for k, v := range obj {
		switch v := v.(type) {
		case nil:
		case string:
			q.Set(k, v)
		case float64:
			q.Set(k, strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			q.Set(k, strconv.FormatBool(v))
		default:
			b, _ := json.Marshal(v)
			q.Set(k, string(b))
		}
	}
	return q, nil
}

func rejectionMessage(status int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if s, ok := body.Error.(string); ok && s != "" {
			return s
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && !json.Valid(raw) {
		if len(text) > 200 {
			text = text[:200]
		}
		return text
	}
	return http.StatusText(status)
}

func asJSON(raw []byte) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	b, _ := json.Marshal(string(raw))
	return b
}

// scalarString renders a JSON string or number as plain text.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// IsRemote reports whether err is any gateway failure.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// Message returns the remote-supplied message of a rejection, if any.
func Message(err error) string {
	var re *RemoteError
	if errors.As(err, &re) && errors.Is(re.Kind, ErrRemoteRejected) {
		return re.Message
	}
	return ""
}
