package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ogeth777/baseworld/internal/logging"
)

var ErrCaptchaFailed = errors.New("captcha verification failed")

// Gate decides whether a request comes from a human.
type Gate interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// NoopGate accepts everything.
type NoopGate struct{}

func (NoopGate) Verify(context.Context, string, string) error {
	return nil
}

// New returns a recaptcha gate, or a NoopGate when no secret is configured.
func New(log *logging.Logger, cfg Config) Gate {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	if cfg.Secret == "" {
		log.Info("no captcha secret configured, captcha gate disabled")
		return NoopGate{}
	}
	return &ReCaptcha{
		log: log,
		cfg: cfg,
		clt: &http.Client{Timeout: cfg.Timeout.Get()},
	}
}

// ReCaptcha checks score based tokens against the recaptcha verify endpoint.
type ReCaptcha struct {
	log *logging.Logger
	cfg Config
	clt *http.Client
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

func (g *ReCaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", ErrCaptchaFailed)
	}

	form := url.Values{}
	form.Set("secret", g.cfg.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	res, err := g.clt.Do(req)
	if err != nil {
		g.log.Warn("captcha provider unreachable", logging.Error(err))
		return fmt.Errorf("%w: provider unreachable", ErrCaptchaFailed)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCaptchaFailed, err)
	}
	vr := verifyResponse{}
	if err := json.Unmarshal(body, &vr); err != nil {
		g.log.Warn("invalid captcha provider response",
			logging.Int("status", res.StatusCode),
			logging.Error(err))
		return fmt.Errorf("%w: invalid provider response", ErrCaptchaFailed)
	}

	if !vr.Success || vr.Score <= g.cfg.MinScore {
		g.log.Debug("captcha refused",
			logging.Float64("score", vr.Score),
			logging.Strings("error-codes", vr.ErrorCodes))
		return fmt.Errorf("%w: score too low", ErrCaptchaFailed)
	}
	return nil
}
