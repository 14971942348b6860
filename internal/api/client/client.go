package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/loaneye/internal/catalog"
	"github.com/loaneye/internal/models"
	"github.com/loaneye/internal/report"
	"github.com/loaneye/internal/rule"
)

const DefaultURL = "http://localhost:8080"

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient talks to the API at baseURL. The token may be empty for login.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

type AlertQuery struct {
	EventFrom  string
	EventTo    string
	AlertFrom  string
	AlertTo    string
	Portfolios []string
	Signals    []int
	Borrowers  []string
}

func (q AlertQuery) values() url.Values {
	v := url.Values{}
	for key, val := range map[string]string{
		"event_from": q.EventFrom,
		"event_to":   q.EventTo,
		"alert_from": q.AlertFrom,
		"alert_to":   q.AlertTo,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	for _, p := range q.Portfolios {
		v.Add("portfolio", p)
	}
	if len(q.Signals) > 0 {
		codes := make([]string, len(q.Signals))
		for i, c := range q.Signals {
			codes[i] = strconv.Itoa(c)
		}
		v.Set("signal", strings.Join(codes, ","))
	}
	if len(q.Borrowers) > 0 {
		v.Set("borrower", strings.Join(q.Borrowers, ","))
	}
	return v
}

type AlertList struct {
	Total  int                  `json:"total"`
	Alerts []models.AlertRecord `json:"alerts"`
}

type AlertDetails struct {
	Alert      *models.AlertRecord    `json:"alert,omitempty"`
	SignalCode int                    `json:"signal_code"`
	Table      string                 `json:"table,omitempty"`
	Columns    []string               `json:"columns"`
	Details    []models.DetailRecord  `json:"details"`
	Rules      []models.PublishedRule `json:"rules,omitempty"`
}

type Signal struct {
	Code      int    `json:"code"`
	Name      string `json:"name"`
	Table     string `json:"table,omitempty"`
	Loaded    bool   `json:"details_loaded"`
	Cataloged bool   `json:"cataloged"`
}

type SignalList struct {
	Signals      []Signal `json:"signals"`
	DetailErrors []string `json:"detail_errors"`
}

// SaveRequest saves a block as a final rule (Kind "final") or as a named
// variable rule (Kind "variable").
type SaveRequest struct {
	Kind     string          `json:"kind"`
	Name     string          `json:"name,omitempty"`
	Workflow models.Workflow `json:"actionable_workflow,omitempty"`
	Severity models.Severity `json:"alert_severity,omitempty"`
}

type SaveResult struct {
	VariableRule *models.VariableRule `json:"variable_rule,omitempty"`
	FinalRule    *models.FinalRule    `json:"final_rule,omitempty"`
}

func (c *Client) Login(username, password string) (string, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := c.post("/api/v1/auth/login", body, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func (c *Client) ListAlerts(q AlertQuery) (*AlertList, error) {
	var list AlertList
	if err := c.get(withQuery("/api/v1/alerts", q.values()), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) AlertDetails(alertID string) (*AlertDetails, error) {
	var d AlertDetails
	if err := c.get(fmt.Sprintf("/api/v1/alerts/%s/details", alertID), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) SignalAlertDetails(code int, alertID string) (*AlertDetails, error) {
	var d AlertDetails
	if err := c.get(fmt.Sprintf("/api/v1/signals/%d/alerts/%s/details", code, alertID), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ListSignals() (*SignalList, error) {
	var list SignalList
	if err := c.get("/api/v1/signals", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) SignalVariables(code int) ([]catalog.SystemVariable, error) {
	var result struct {
		Variables []catalog.SystemVariable `json:"variables"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/signals/%d/variables", code), &result); err != nil {
		return nil, err
	}
	return result.Variables, nil
}

func (c *Client) CreateSession(code int) (*rule.State, error) {
	var state rule.State
	if err := c.post("/api/v1/sessions", map[string]int{"signal_code": code}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) GetSession(id string) (*rule.State, error) {
	var state rule.State
	if err := c.get("/api/v1/sessions/"+id, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) DeleteSession(id string) error {
	return c.do(http.MethodDelete, "/api/v1/sessions/"+id, nil, nil)
}

func (c *Client) SwitchSignal(id string, code int) (*rule.State, error) {
	var state rule.State
	endpoint := fmt.Sprintf("/api/v1/sessions/%s/signal", id)
	if err := c.do(http.MethodPut, endpoint, map[string]int{"signal_code": code}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// AddPiece appends a clause to a block and returns the block's new text.
func (c *Client) AddPiece(id string, block int, p rule.Piece) (string, error) {
	var result struct {
		Text string `json:"text"`
	}
	endpoint := fmt.Sprintf("/api/v1/sessions/%s/blocks/%d/pieces", id, block)
	if err := c.post(endpoint, p, &result); err != nil {
		return "", err
	}
	return result.Text, nil
}

func (c *Client) ResetBlock(id string, block int) error {
	return c.post(fmt.Sprintf("/api/v1/sessions/%s/blocks/%d/reset", id, block), nil, nil)
}

func (c *Client) SaveBlock(id string, block int, req SaveRequest) (*SaveResult, error) {
	var result SaveResult
	endpoint := fmt.Sprintf("/api/v1/sessions/%s/blocks/%d/save", id, block)
	if err := c.post(endpoint, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Publish(id string) ([]models.PublishedRule, error) {
	var result struct {
		Published []models.PublishedRule `json:"published"`
	}
	if err := c.post(fmt.Sprintf("/api/v1/sessions/%s/publish", id), nil, &result); err != nil {
		return nil, err
	}
	return result.Published, nil
}

func (c *Client) ListRules(enabled *bool, signal *int) ([]models.PublishedRule, error) {
	query := url.Values{}
	if enabled != nil {
		query.Set("enabled", strconv.FormatBool(*enabled))
	}
	if signal != nil {
		query.Set("signal", strconv.Itoa(*signal))
	}

	var rules []models.PublishedRule
	if err := c.get(withQuery("/api/v1/rules", query), &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (c *Client) GetRule(id uint) (*models.PublishedRule, error) {
	var r models.PublishedRule
	if err := c.get(fmt.Sprintf("/api/v1/rules/%d", id), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) DeleteRule(id uint) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/v1/rules/%d", id), nil, nil)
}

func (c *Client) EnableRule(id uint) error {
	return c.do(http.MethodPut, fmt.Sprintf("/api/v1/rules/%d/enable", id), nil, nil)
}

func (c *Client) DisableRule(id uint) error {
	return c.do(http.MethodPut, fmt.Sprintf("/api/v1/rules/%d/disable", id), nil, nil)
}

// ImportRules uploads a document produced by ExportRules.
func (c *Client) ImportRules(data []byte) (int, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/v1/rules/import", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var result struct {
		Imported int `json:"imported"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Imported, nil
}

func (c *Client) ExportRules(w io.Writer) error {
	resp, err := c.doRequest(http.MethodGet, "/api/v1/rules/export", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) Dashboard(portfolios []string) (*report.Dashboard, error) {
	query := url.Values{}
	for _, p := range portfolios {
		query.Add("portfolio", p)
	}
	var d report.Dashboard
	if err := c.get(withQuery("/api/v1/dashboard", query), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// NotifyDashboard sends the digest and returns the channels that accepted it.
func (c *Client) NotifyDashboard(portfolios []string) ([]string, error) {
	var result struct {
		Sent []string `json:"sent"`
	}
	body := map[string][]string{"portfolios": portfolios}
	if err := c.post("/api/v1/dashboard/notify", body, &result); err != nil {
		return nil, err
	}
	return result.Sent, nil
}

func withQuery(endpoint string, query url.Values) string {
	if len(query) == 0 {
		return endpoint
	}
	return endpoint + "?" + query.Encode()
}

func (c *Client) get(endpoint string, v interface{}) error {
	return c.do(http.MethodGet, endpoint, nil, v)
}

func (c *Client) post(endpoint string, data, v interface{}) error {
	return c.do(http.MethodPost, endpoint, data, v)
}

func (c *Client) do(method, endpoint string, data, v interface{}) error {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	resp, err := c.doRequest(method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) doRequest(method, endpoint string, body io.Reader) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	rawQuery := ""
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint, rawQuery = endpoint[:i], endpoint[i+1:]
	}
	u.Path = path.Join(u.Path, endpoint)
	u.RawQuery = rawQuery

	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Message = errResp.Error
		}
		return nil, apiErr
	}

	return resp, nil
}
