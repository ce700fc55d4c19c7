package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// Every provider call is bounded; a timed-out call is a transient
	// failure, never a hang.
	requestTimeout = 25 * time.Second

	apiVersion = "202405"
)

// Client is a thin wrapper around the Member Data Portability REST
// endpoints. Stateless; the bearer token is passed per call.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{},
	}
}

// FetchSnapshot pulls the bulk export for one snapshot domain. A 404 means
// "no data yet" and returns an empty batch with no error.
func (c *Client) FetchSnapshot(ctx context.Context, token, domain string) ([]map[string]any, error) {
	endpoint := "memberSnapshotData"

	params := url.Values{}
	params.Set("q", "criteria")
	params.Set("domain", domain)

	body, err := c.get(ctx, token, endpoint, params)
	if err != nil || body == nil {
		return nil, err
	}

	var envelope snapshotEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &TransientError{Endpoint: endpoint, Err: fmt.Errorf("malformed response: %w", err)}
	}

	var records []map[string]any
	for _, element := range envelope.Elements {
		if element.SnapshotDomain != "" && element.SnapshotDomain != domain {
			continue
		}
		records = append(records, element.SnapshotData...)
	}

	return records, nil
}

// FetchChangelog pulls recent create/update events. startTime of 0 means
// the provider's full trailing window.
func (c *Client) FetchChangelog(ctx context.Context, token string, startTime int64) ([]ChangelogEvent, error) {
	endpoint := "memberChangeLogs"

	params := url.Values{}
	params.Set("q", "memberAndApplication")
	params.Set("count", "50")
	if startTime > 0 {
		params.Set("startTime", strconv.FormatInt(startTime, 10))
	}

	body, err := c.get(ctx, token, endpoint, params)
	if err != nil || body == nil {
		return nil, err
	}

	var envelope changelogEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &TransientError{Endpoint: endpoint, Err: fmt.Errorf("malformed response: %w", err)}
	}

	return envelope.Elements, nil
}

// FetchMemberAuthorization returns the member's DMA consent state. A 404 or
// an empty element list means consent was never granted or has been
// revoked.
func (c *Client) FetchMemberAuthorization(ctx context.Context, token string) (*MemberAuthorization, error) {
	endpoint := "memberAuthorizations"

	params := url.Values{}
	params.Set("q", "memberAndApplication")

	body, err := c.get(ctx, token, endpoint, params)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return &MemberAuthorization{Active: false}, nil
	}

	var envelope authorizationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &TransientError{Endpoint: endpoint, Err: fmt.Errorf("malformed response: %w", err)}
	}

	if len(envelope.Elements) == 0 {
		return &MemberAuthorization{Active: false}, nil
	}

	element := envelope.Elements[0]
	return &MemberAuthorization{
		MemberURN:   element.Key.Member,
		Active:      true,
		Scopes:      element.Scopes,
		RegulatedAt: element.RegulatedAt,
	}, nil
}

// get performs one bounded request and maps the provider's status taxonomy:
// 404 -> (nil, nil), 401/403 -> UnavailableError, 5xx/network -> TransientError.
func (c *Client) get(ctx context.Context, token, endpoint string, params url.Values) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	requestURL := fmt.Sprintf("%s/rest/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("LinkedIn-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &UnavailableError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	case resp.StatusCode >= 500:
		return nil, &TransientError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("linkedin %s unexpected status: %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Endpoint: endpoint, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return body, nil
}
