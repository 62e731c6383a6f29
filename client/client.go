package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ogeth777/baseworld/api"
	"github.com/ogeth777/baseworld/canvas"
)

var (
	// ErrRejected is a definitive refusal, sending the same paint again
	// cannot succeed.
	ErrRejected = errors.New("paint rejected by the server")
	// ErrRetryable is a refusal that may turn into a success later.
	ErrRetryable = errors.New("paint not confirmed yet")
)

// ServerError is an error answered by the canvas server.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.StatusCode, e.Code)
}

// Definitive reports whether the server refused the paint for good.
func (e *ServerError) Definitive() bool {
	switch e.Code {
	case api.CodeInvalidInput, api.CodeCaptchaFailed, api.CodeCooldownActive, api.CodePaymentRejected, api.CodeAirdropUnavailable:
		return true
	default:
		return false
	}
}

func (e *ServerError) Unwrap() error {
	if e.Definitive() {
		return ErrRejected
	}
	return ErrRetryable
}

// Client talks to the canvas server HTTP API.
type Client struct {
	clt  *http.Client
	base *url.URL
}

func New(addr string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url scheme %q", base.Scheme)
	}
	return &Client{
		clt:  &http.Client{Timeout: timeout},
		base: base,
	}, nil
}

func (c *Client) endpoint(p ...string) string {
	u := *c.base
	u.Path = path.Join(append([]string{u.Path}, p...)...)
	return u.String()
}

// StreamURL returns the websocket url of the push channel.
func (c *Client) StreamURL() string {
	u := *c.base
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = path.Join(u.Path, "/ws")
	return u.String()
}

// NotifyPaint asks the server to apply a paid paint. Errors answered by the
// server wrap ErrRejected or ErrRetryable, anything else is a transport
// failure and is worth retrying.
func (c *Client) NotifyPaint(ctx context.Context, in Intent) error {
	cell := in.Cell
	body := api.PaintRequest{
		TxHash:       in.PaymentRef,
		TileID:       &cell,
		Address:      in.Actor,
		Annotation:   in.Annotation,
		CaptchaToken: in.CaptchaToken,
	}
	return c.post(ctx, c.endpoint("/api/paint"), body, nil)
}

func (c *Client) ClaimAirdrop(ctx context.Context, address, id string) error {
	body := api.ClaimRequest{Address: address, AirdropID: id}
	return c.post(ctx, c.endpoint("/api/airdrop/claim"), body, nil)
}

func (c *Client) UserState(ctx context.Context, address string) (canvas.UserState, error) {
	us := canvas.UserState{}
	err := c.get(ctx, c.endpoint("/api/user", address), &us)
	return us, err
}

func (c *Client) Stats(ctx context.Context) (canvas.Stats, error) {
	st := canvas.Stats{}
	err := c.get(ctx, c.endpoint("/api/stats"), &st)
	return st, err
}

func (c *Client) post(ctx context.Context, u string, body, into interface{}) error {
	jbytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(jbytes))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	return c.do(req, into)
}

func (c *Client) get(ctx context.Context, u string, into interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, into)
}

func (c *Client) do(req *http.Request, into interface{}) error {
	res, err := c.clt.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	resbody, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	if res.StatusCode != http.StatusOK {
		herr := api.HTTPError{}
		if err := json.Unmarshal(resbody, &herr); err != nil || herr.Code == "" {
			herr.ErrorStr = http.StatusText(res.StatusCode)
		}
		return &ServerError{
			StatusCode: res.StatusCode,
			Code:       herr.Code,
			Message:    herr.ErrorStr,
			RetryAfter: time.Duration(herr.RetryAfterMs) * time.Millisecond,
		}
	}

	if into == nil {
		return nil
	}
	return json.Unmarshal(resbody, into)
}
