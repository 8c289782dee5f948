// Package sms sends transactional SMS through Twilio's REST API. When no
// credentials are configured the sender simulates success so SOS flows
// keep working in development.
package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var indianMobile = regexp.MustCompile(`^[6-9]\d{9}$`)

// FormatIndianNumber normalizes a phone number into +91 E.164 form. It
// strips separators and leading zeros, drops a 91 country prefix, and as
// a last resort coerces the trailing ten digits.
func FormatIndianNumber(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := strings.TrimLeft(digits.String(), "0")

	if strings.HasPrefix(d, "91") && len(d) == 12 {
		d = d[2:]
	}
	if !indianMobile.MatchString(d) {
		last10 := d
		if len(d) > 10 {
			last10 = d[len(d)-10:]
		}
		if !indianMobile.MatchString(last10) {
			return "", fmt.Errorf("invalid Indian mobile number: %s", phone)
		}
		d = last10
	}
	return "+91" + d, nil
}

// Result is the outcome of one send in a bulk dispatch.
type Result struct {
	To        string `json:"to"`
	Success   bool   `json:"success"`
	Simulated bool   `json:"simulated"`
	Error     string `json:"error,omitempty"`
}

type Sender struct {
	httpClient *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
	logger     *zap.Logger
}

// NewSender builds a Twilio-backed sender. With empty credentials it
// runs in simulation mode.
func NewSender(accountSID, authToken, from string, logger *zap.Logger) *Sender {
	s := &Sender{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.twilio.com",
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		logger:     logger,
	}
	if s.Configured() {
		logger.Info("sms sender initialized", zap.String("from", from))
	} else {
		logger.Warn("sms credentials not configured; sends will be simulated")
	}
	return s
}

// Configured reports whether real credentials are present.
func (s *Sender) Configured() bool {
	return s.accountSID != "" && s.authToken != "" && s.from != ""
}

// Send delivers one message. Unconfigured senders log and report
// success so calling flows are not blocked.
func (s *Sender) Send(ctx context.Context, to, body string) (Result, error) {
	e164, err := FormatIndianNumber(to)
	if err != nil {
		return Result{To: to, Error: err.Error()}, err
	}

	if !s.Configured() {
		s.logger.Info("simulating sms send", zap.String("to", e164))
		return Result{To: e164, Success: true, Simulated: true}, nil
	}

	form := url.Values{}
	form.Set("To", e164)
	form.Set("From", s.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{To: e164, Error: err.Error()}, err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Result{To: e164, Error: err.Error()}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("twilio: status %d: %s", resp.StatusCode, msg)
		return Result{To: e164, Error: err.Error()}, err
	}
	return Result{To: e164, Success: true}, nil
}

// SendBulk dispatches to every number concurrently; one failure never
// affects the others. Results keep the input order.
func (s *Sender) SendBulk(ctx context.Context, numbers []string, body string) []Result {
	results := make([]Result, len(numbers))
	var wg sync.WaitGroup
	for i, n := range numbers {
		wg.Add(1)
		go func(i int, n string) {
			defer wg.Done()
			res, err := s.Send(ctx, n, body)
			if err != nil {
				s.logger.Warn("sms send failed", zap.String("to", n), zap.Error(err))
			}
			results[i] = res
		}(i, n)
	}
	wg.Wait()
	return results
}
