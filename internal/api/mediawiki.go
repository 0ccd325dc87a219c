package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/publicsuffix"

	"github.com/L235/MWRecentChangesReport/internal/models"
)

const (
	requestTimeout = 30 * time.Second
	userAgent      = "rc-report/1.0"

	// Hard ceiling on continuation pages. A well-behaved wiki never comes
	// close; hitting it means the continuation loop is not converging.
	maxPages = 10000

	mwTimeFormat = "2006-01-02T15:04:05Z"
)

// WikiClient talks to a MediaWiki api.php endpoint. Login stores the
// session cookies in the client's jar, so the same client must be used
// for the subsequent change fetch. Not safe for concurrent use.
type WikiClient struct {
	httpClient *http.Client
	apiURL     string
	baseURL    string
	logger     *log.Logger
}

// NewWikiClient creates a client for the wiki at the given host,
// e.g. "wiki.example.org". The host must resolve to a registrable domain.
func NewWikiClient(domain string, logger *log.Logger) (*WikiClient, error) {
	host, err := NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &WikiClient{
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
		},
		apiURL:  "https://" + host + "/w/api.php",
		baseURL: "https://" + host,
		logger:  logger,
	}, nil
}

// NormalizeDomain extracts the wiki host from a bare hostname or a full URL
// and validates that it belongs to a registrable domain.
// Examples:
//   - "wiki.example.org" -> "wiki.example.org"
//   - "https://wiki.example.org/" -> "wiki.example.org"
func NormalizeDomain(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty wiki domain")
	}

	if strings.Contains(input, "://") {
		parsed, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("invalid wiki URL: %w", err)
		}
		input = parsed.Hostname()
	}
	input = strings.TrimSuffix(input, ".")

	// Reject hosts with no registrable domain (bare TLDs, garbage input)
	if _, err := publicsuffix.EffectiveTLDPlusOne(input); err != nil {
		return "", fmt.Errorf("invalid wiki domain %q: %w", input, err)
	}

	return strings.ToLower(input), nil
}

// WikiTitle derives a short display name from the wiki host:
// "wiki.example.org" -> "wiki". Used in report headers and subjects.
func WikiTitle(host string) string {
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}

// BaseURL returns the wiki root used for page, user and diff links
func (c *WikiClient) BaseURL() string {
	return c.baseURL
}

type loginTokenResponse struct {
	Query struct {
		Tokens struct {
			LoginToken string `json:"logintoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type loginResponse struct {
	Login struct {
		Result string `json:"result"`
		Reason string `json:"reason"`
	} `json:"login"`
}

// Login authenticates the client against the wiki using the two-step
// token/login exchange. Any failure wraps ErrAuth and is fatal to the run.
func (c *WikiClient) Login(username, password string) error {
	token, err := c.fetchLoginToken()
	if err != nil {
		return err
	}

	form := url.Values{
		"action":     {"login"},
		"lgname":     {username},
		"lgpassword": {password},
		"lgtoken":    {token},
		"format":     {"json"},
	}

	req, err := http.NewRequest("POST", c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: failed to create login request: %v", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: login request failed: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: login returned status %d: %s", ErrAuth, resp.StatusCode, string(body))
	}

	var result loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: failed to decode login response: %v", ErrAuth, err)
	}

	if result.Login.Result != "Success" {
		reason := result.Login.Reason
		if reason == "" {
			reason = "no reason provided"
		}
		return fmt.Errorf("%w: %s: %s", ErrAuth, result.Login.Result, reason)
	}

	if c.logger != nil {
		c.logger.Info("Logged in", "user", username, "wiki", c.baseURL)
	}
	return nil
}

// fetchLoginToken requests a fresh login token from the wiki
func (c *WikiClient) fetchLoginToken() (string, error) {
	params := url.Values{
		"action": {"query"},
		"meta":   {"tokens"},
		"type":   {"login"},
		"format": {"json"},
	}

	req, err := http.NewRequest("GET", c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create token request: %v", ErrAuth, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request failed: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: token request returned status %d: %s", ErrAuth, resp.StatusCode, string(body))
	}

	var result loginTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode token response: %v", ErrAuth, err)
	}

	if result.Query.Tokens.LoginToken == "" {
		return "", fmt.Errorf("%w: token response contained no login token", ErrAuth)
	}

	return result.Query.Tokens.LoginToken, nil
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type rawChange struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Comment   string `json:"comment"`
	RevID     int64  `json:"revid"`
	OldRevID  int64  `json:"old_revid"`
	OldLen    *int   `json:"oldlen"`
	NewLen    *int   `json:"newlen"`
}

type recentChangesResponse struct {
	// Continuation parameters to merge into the next request. Values are
	// opaque; MediaWiki may return strings or numbers here.
	Continue map[string]any `json:"continue"`
	Query    struct {
		RecentChanges []rawChange `json:"recentchanges"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

// FetchChanges retrieves every change in the half-open window [Start, End),
// following the API's continue mechanism until exhausted. Returns the
// normalized records plus a count of raw records skipped for missing
// required fields. On any error the partial results are discarded and the
// returned error wraps ErrFetch.
func (c *WikiClient) FetchChanges(window models.Window) ([]models.ChangeRecord, int, error) {
	if err := window.Validate(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	params := url.Values{
		"action":  {"query"},
		"list":    {"recentchanges"},
		"rcprop":  {"title|timestamp|user|comment|ids|sizes"},
		"rclimit": {"max"},
		"rcdir":   {"older"},
		// rcdir=older walks newest-first, so rcstart is the newer bound
		"rcstart": {window.End.UTC().Format(mwTimeFormat)},
		"rcend":   {window.Start.UTC().Format(mwTimeFormat)},
		"format":  {"json"},
	}

	var records []models.ChangeRecord
	skipped := 0
	prevContinue := ""

	for page := 1; ; page++ {
		if page > maxPages {
			return nil, 0, fmt.Errorf("%w: pagination did not terminate after %d pages", ErrFetch, maxPages)
		}

		resp, err := c.fetchChangePage(params)
		if err != nil {
			return nil, 0, err
		}

		for _, raw := range resp.Query.RecentChanges {
			record, ok := normalizeChange(raw, window)
			if !ok {
				skipped++
				continue
			}
			if record == nil {
				// outside the half-open window, not malformed
				continue
			}
			records = append(records, *record)
		}

		if c.logger != nil {
			c.logger.Info("Change page fetched",
				"page", page,
				"pageRecords", len(resp.Query.RecentChanges),
				"totalRecords", len(records),
				"hasMore", len(resp.Continue) > 0)
		}

		if len(resp.Continue) == 0 {
			break
		}

		// A continuation token identical to the previous one would loop forever
		key := continueFingerprint(resp.Continue)
		if key == prevContinue {
			return nil, 0, fmt.Errorf("%w: server returned the same continuation token twice: %s", ErrFetch, key)
		}
		prevContinue = key

		for k, v := range resp.Continue {
			params.Set(k, continueValue(v))
		}
	}

	if skipped > 0 && c.logger != nil {
		c.logger.Warn("Skipped malformed change records", "count", skipped)
	}

	return records, skipped, nil
}

// fetchChangePage issues a single recentchanges query
func (c *WikiClient) fetchChangePage(params url.Values) (*recentChangesResponse, error) {
	req, err := http.NewRequest("GET", c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: API returned status %d: %s", ErrFetch, resp.StatusCode, string(body))
	}

	var result recentChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrFetch, err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("%w: API error %s: %s", ErrFetch, result.Error.Code, result.Error.Info)
	}

	return &result, nil
}

// normalizeChange converts a raw API record into a ChangeRecord.
// ok=false marks a record skipped for missing required fields.
// A nil record with ok=true means the record fell outside the window
// (the API's range bounds are inclusive, ours are half-open).
func normalizeChange(raw rawChange, window models.Window) (*models.ChangeRecord, bool) {
	if raw.Title == "" || raw.Timestamp == "" || raw.RevID == 0 {
		return nil, false
	}

	ts, err := time.Parse(mwTimeFormat, raw.Timestamp)
	if err != nil {
		return nil, false
	}

	if !window.Contains(ts) {
		return nil, true
	}

	record := &models.ChangeRecord{
		Title:     raw.Title,
		Timestamp: ts,
		User:      raw.User,
		Comment:   raw.Comment,
		RevID:     raw.RevID,
		OldRevID:  raw.OldRevID,
	}
	if raw.OldLen != nil && raw.NewLen != nil {
		record.SizeDelta = *raw.NewLen - *raw.OldLen
		record.HasSizes = true
	}

	return record, true
}

// continueFingerprint serializes a continuation object into a stable string
// so consecutive tokens can be compared for the repeat guard
func continueFingerprint(cont map[string]any) string {
	keys := make([]string, 0, len(cont))
	for k := range cont {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(continueValue(cont[k]))
	}
	return b.String()
}

// continueValue renders a continuation value for the next request. JSON
// numbers decode as float64, and fmt would print large ones in scientific
// notation, which the API does not accept back.
func continueValue(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
