package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	drepo "MarketPulse/internal/domain/repository"
	xhttp "MarketPulse/pkg/http"
)

const (
	DefaultAPIURL = "https://api.telegram.org"
	// MaxMessageLength is the Bot API limit for one sendMessage text.
	MaxMessageLength = 4096
)

var ErrNotConfigured = errors.New("telegram: bot token or channel id missing")

// APIError is a Bot API response with ok=false.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

func (e *APIError) Temporary() bool {
	return e.Code == 429 || e.Code >= 500
}

// Notifier posts HTML messages to one channel through the Bot API.
type Notifier struct {
	apiURL    string
	token     string
	channelID string
	client    *xhttp.Client
}

type Option func(*Notifier)

func WithAPIURL(u string) Option {
	return func(n *Notifier) {
		if u != "" {
			n.apiURL = strings.TrimRight(u, "/")
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.client = xhttp.NewClient(xhttp.WithTimeout(d))
		}
	}
}

func NewNotifier(token, channelID string, opts ...Option) *Notifier {
	n := &Notifier{
		apiURL:    DefaultAPIURL,
		token:     token,
		channelID: channelID,
		client:    xhttp.NewClient(xhttp.WithTimeout(15 * time.Second)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send delivers text with parse_mode=HTML.
func (n *Notifier) Send(ctx context.Context, text string) error {
	if n.token == "" || n.channelID == "" {
		return ErrNotConfigured
	}

	var resp apiResponse
	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.token),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: sendMessageRequest{
			ChatID:                n.channelID,
			Text:                  text,
			ParseMode:             "HTML",
			DisableWebPagePreview: true,
		},
	}, &resp)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			return parseAPIError(se)
		}
		// url.Error carries the request URL, which contains the token
		var ue *url.Error
		if errors.As(err, &ue) {
			return fmt.Errorf("telegram send: %w", ue.Err)
		}
		return fmt.Errorf("telegram send: %w", err)
	}
	if !resp.OK {
		return resp.toError()
	}
	return nil
}

func (r apiResponse) toError() *APIError {
	e := &APIError{Code: r.ErrorCode, Description: r.Description}
	if r.Parameters != nil && r.Parameters.RetryAfter > 0 {
		e.RetryAfter = time.Duration(r.Parameters.RetryAfter) * time.Second
	}
	return e
}

func parseAPIError(se *xhttp.StatusError) error {
	var r apiResponse
	if jsonErr := json.Unmarshal([]byte(se.Body), &r); jsonErr != nil || r.ErrorCode == 0 {
		return &APIError{Code: se.Code, Description: se.Body}
	}
	return r.toError()
}

var _ drepo.Notifier = (*Notifier)(nil)
