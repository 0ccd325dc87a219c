package api

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const mailgunAPIBase = "https://api.mailgun.net/v3"

// MailgunClient sends rendered digests through the Mailgun messages API.
// It satisfies the digest.Sender capability.
type MailgunClient struct {
	httpClient *http.Client
	apiBase    string
	domain     string
	apiKey     string
	logger     *log.Logger
}

// NewMailgunClient creates a client for the given Mailgun sending domain
func NewMailgunClient(domain, apiKey string, logger *log.Logger) *MailgunClient {
	return &MailgunClient{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		apiBase: mailgunAPIBase,
		domain:  domain,
		apiKey:  apiKey,
		logger:  logger,
	}
}

// Send posts one HTML message. A non-2xx response is a failure; the body
// is included in the error because Mailgun puts the rejection reason there.
func (c *MailgunClient) Send(from, to, subject, htmlBody string) error {
	form := url.Values{
		"from":    {from},
		"to":      {to},
		"subject": {subject},
		"html":    {htmlBody},
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.apiBase, c.domain)
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.SetBasicAuth("api", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mailgun returned status %d: %s", resp.StatusCode, string(body))
	}

	if c.logger != nil {
		c.logger.Info("Email sent", "to", to, "subject", subject, "elapsed", time.Since(start))
	}
	return nil
}
