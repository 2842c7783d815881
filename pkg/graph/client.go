package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
)

const (
	defaultBaseURL             = "https://graph.facebook.com/v19.0"
	errorBodyReadLimit   int64 = 4096
	defaultLeadsPageSize       = 100
)

// leadFields is the field list requested for every lead fetch.
const leadFields = "id,created_time,field_data,ad_id,ad_name,adset_id,adset_name,campaign_id,campaign_name,form_id,platform,is_organic"

// insightsFields is the fixed field list for ads insights queries.
const insightsFields = "campaign_name,adset_name,ad_name,impressions,clicks,spend,cpc,cpm,ctr,reach,frequency,actions,date_start,date_stop"

// Client wraps the Facebook Graph API endpoints used for lead and insights
// synchronization. Tokens are passed per call; the client itself holds no
// credential state.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Graph base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a Graph API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client
}

// Page is a Facebook page reachable by a user token. AccessToken is the
// page-scoped token returned by me/accounts.
type Page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

// FormSummary is one row from a page's leadgen_forms listing.
type FormSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// FormDetail is the standalone form detail record.
type FormDetail struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	CreatedTime string `json:"created_time"`
}

// AdAccount is one row from me/adaccounts.
type AdAccount struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
}

// RawField is a single submitted form field; Facebook delivers values as a
// list even for single-value fields.
type RawField struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// RawLead is one lead exactly as the Graph API returns it.
type RawLead struct {
	ID           string     `json:"id"`
	CreatedTime  string     `json:"created_time"`
	FieldData    []RawField `json:"field_data"`
	AdID         string     `json:"ad_id"`
	AdName       string     `json:"ad_name"`
	AdsetID      string     `json:"adset_id"`
	AdsetName    string     `json:"adset_name"`
	CampaignID   string     `json:"campaign_id"`
	CampaignName string     `json:"campaign_name"`
	FormID       string     `json:"form_id"`
	Platform     string     `json:"platform"`
	IsOrganic    bool       `json:"is_organic"`
}

// LeadsPage is one page of the leads listing plus the cursor for the next.
type LeadsPage struct {
	Leads      []RawLead
	NextCursor string
}

// LeadsParams bound a single leads page request.
type LeadsParams struct {
	Since *time.Time
	After string
	Limit int
}

// TokenExchange is the OAuth exchange result.
type TokenExchange struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type paging struct {
	Cursors struct {
		After string `json:"after"`
	} `json:"cursors"`
	Next string `json:"next"`
}

// ExchangeToken swaps a short-lived token for a long-lived one.
func (c *Client) ExchangeToken(ctx context.Context, appID, appSecret, shortLivedToken string) (*TokenExchange, error) {
	query := url.Values{}
	query.Set("grant_type", "fb_exchange_token")
	query.Set("client_id", appID)
	query.Set("client_secret", appSecret)
	query.Set("fb_exchange_token", shortLivedToken)

	var out TokenExchange
	if err := c.get(ctx, "oauth/access_token", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPages returns every page reachable by the user token, following the
// paging cursor until exhausted.
func (c *Client) ListPages(ctx context.Context, accessToken string) ([]Page, error) {
	query := url.Values{}
	query.Set("access_token", accessToken)
	query.Set("fields", "id,name,access_token")

	var pages []Page
	after := ""
	for {
		if after != "" {
			query.Set("after", after)
		}
		var out struct {
			Data   []Page `json:"data"`
			Paging paging `json:"paging"`
		}
		if err := c.get(ctx, "me/accounts", query, &out); err != nil {
			return nil, err
		}
		pages = append(pages, out.Data...)
		if out.Paging.Next == "" || out.Paging.Cursors.After == "" {
			return pages, nil
		}
		after = out.Paging.Cursors.After
	}
}

// ListForms returns the lead-generation forms on a page using the page token.
func (c *Client) ListForms(ctx context.Context, pageID, pageAccessToken string) ([]FormSummary, error) {
	query := url.Values{}
	query.Set("access_token", pageAccessToken)
	query.Set("fields", "id,name,status")

	var out struct {
		Data []FormSummary `json:"data"`
	}
	if err := c.get(ctx, pageID+"/leadgen_forms", query, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetForm fetches the detail record for a single form.
func (c *Client) GetForm(ctx context.Context, formID, accessToken string) (*FormDetail, error) {
	query := url.Values{}
	query.Set("access_token", accessToken)
	query.Set("fields", "id,name,status,created_time")

	var out FormDetail
	if err := c.get(ctx, formID, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListLeads fetches one page of leads for a form. Callers follow NextCursor
// with LeadsParams.After until it comes back empty.
func (c *Client) ListLeads(ctx context.Context, formID, accessToken string, params LeadsParams) (*LeadsPage, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLeadsPageSize
	}

	query := url.Values{}
	query.Set("access_token", accessToken)
	query.Set("fields", leadFields)
	query.Set("limit", strconv.Itoa(limit))
	if params.Since != nil {
		query.Set("since", strconv.FormatInt(params.Since.Unix(), 10))
	}
	if params.After != "" {
		query.Set("after", params.After)
	}

	var out struct {
		Data   []RawLead `json:"data"`
		Paging paging    `json:"paging"`
	}
	if err := c.get(ctx, formID+"/leads", query, &out); err != nil {
		return nil, err
	}

	page := &LeadsPage{Leads: out.Data}
	if out.Paging.Next != "" {
		page.NextCursor = out.Paging.Cursors.After
	}
	return page, nil
}

// ListAdAccounts returns the ad accounts reachable by the token.
func (c *Client) ListAdAccounts(ctx context.Context, accessToken string) ([]AdAccount, error) {
	query := url.Values{}
	query.Set("access_token", accessToken)
	query.Set("fields", "id,account_id,name")

	var out struct {
		Data []AdAccount `json:"data"`
	}
	if err := c.get(ctx, "me/adaccounts", query, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetInsights fetches ad-level performance rows for an ad account. The
// returned value is the raw data array so callers can cache it verbatim.
func (c *Client) GetInsights(ctx context.Context, adAccountID, accessToken, datePreset, breakdown string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("access_token", accessToken)
	query.Set("fields", insightsFields)
	query.Set("date_preset", datePreset)
	query.Set("level", "ad")
	query.Set("limit", "500")
	if breakdown != "" {
		query.Set("breakdowns", breakdown)
	}

	var out struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.get(ctx, adAccountID+"/insights", query, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return json.RawMessage("[]"), nil
	}
	return out.Data, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build graph request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute graph request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return upstreamError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode graph response")
	}
	return nil
}

// Graph error codes that signal request throttling: 4 application-level,
// 17 user-level, 32 page-level, 613 custom rate limit.
var rateLimitCodes = map[int]bool{4: true, 17: true, 32: true, 613: true}

// upstreamError surfaces the Graph error envelope message verbatim so users
// can self-diagnose token problems. Throttling codes map to the rate-limit
// error so callers can back off instead of treating them as hard failures.
func upstreamError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	if message == "" {
		message = fmt.Sprintf("status %d", resp.StatusCode)
	}

	code := pkgerrors.CodeUpstream
	hint := "the access token may be expired or missing permissions"
	if rateLimitCodes[envelope.Error.Code] {
		code = pkgerrors.CodeRateLimit
		hint = "graph api throttled the request, retry after backing off"
	}

	return pkgerrors.New(code, "facebook: "+message).WithDetails(map[string]any{
		"status": resp.StatusCode,
		"code":   envelope.Error.Code,
		"hint":   hint,
	})
}
