package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ogeth777/baseworld/airdrop"
	"github.com/ogeth777/baseworld/canvas"
	"github.com/ogeth777/baseworld/captcha"
	"github.com/ogeth777/baseworld/cooldown"
	"github.com/ogeth777/baseworld/payment"
)

const (
	CodeInvalidInput         = "invalid_input"
	CodeCaptchaFailed        = "captcha_failed"
	CodeCooldownActive       = "cooldown_active"
	CodePaymentRejected      = "payment_rejected"
	CodePaymentIndeterminate = "payment_indeterminate"
	CodeAirdropUnavailable   = "airdrop_unavailable"
	CodeRateLimited          = "rate_limited"
	CodeInternal             = "internal_error"
)

var ErrInvalidRequest = newError(CodeInvalidInput, "invalid request")

type HTTPError struct {
	ErrorStr     string `json:"error"`
	Code         string `json:"code"`
	RetryAfterMs int64  `json:"retryAfterMs,omitempty"`
}

func (e HTTPError) Error() string {
	return e.ErrorStr
}

func newError(code, e string) HTTPError {
	return HTTPError{
		ErrorStr: e,
		Code:     code,
	}
}

// toHTTPError maps a domain error to its response and status. Unknown
// errors are reported without their message.
func toHTTPError(err error) (HTTPError, int) {
	var active cooldown.ActiveError
	switch {
	case errors.As(err, &active):
		e := newError(CodeCooldownActive, err.Error())
		e.RetryAfterMs = active.Remaining.Milliseconds()
		return e, http.StatusTooManyRequests
	case errors.Is(err, cooldown.ErrCooldownActive):
		return newError(CodeCooldownActive, err.Error()), http.StatusTooManyRequests
	case errors.Is(err, canvas.ErrInvalidInput):
		return newError(CodeInvalidInput, err.Error()), http.StatusBadRequest
	case errors.Is(err, captcha.ErrCaptchaFailed):
		return newError(CodeCaptchaFailed, captcha.ErrCaptchaFailed.Error()), http.StatusBadRequest
	case errors.Is(err, payment.ErrPaymentRejected):
		return newError(CodePaymentRejected, err.Error()), http.StatusPaymentRequired
	case errors.Is(err, payment.ErrPaymentIndeterminate):
		return newError(CodePaymentIndeterminate, err.Error()), http.StatusServiceUnavailable
	case errors.Is(err, airdrop.ErrClaimRejected):
		return newError(CodeAirdropUnavailable, err.Error()), http.StatusConflict
	default:
		return newError(CodeInternal, "internal error"), http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	e, status := toHTTPError(err)
	switch {
	case e.RetryAfterMs > 0:
		w.Header().Set("Retry-After", strconv.FormatInt((e.RetryAfterMs+999)/1000, 10))
	case status == http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "5")
	}
	writeError(w, e, status)
}
