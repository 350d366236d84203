package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"queryquest/internal/mission"
	"queryquest/internal/quest"
)

var ErrServiceUnavailable = errors.New("queryquest service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// QueryResult is a decoded POST /api/query response. Rows keep their values
// keyed by column; Columns carries the display order.
type QueryResult struct {
	Success        bool             `json:"success"`
	Columns        []string         `json:"columns"`
	Rows           []map[string]any `json:"rows"`
	RowCount       int64            `json:"rowCount"`
	Feedback       string           `json:"feedback"`
	XPEarned       *int             `json:"xpEarned,omitempty"`
	PlayerProgress *quest.Progress  `json:"playerProgress,omitempty"`
}

type queryRequest struct {
	SQL       string `json:"sql"`
	MissionID string `json:"missionId,omitempty"`
}

type rankingsResponse struct {
	Rankings []quest.RankingEntry `json:"rankings"`
}

type resetResponse struct {
	Message  string         `json:"message"`
	Progress quest.Progress `json:"progress"`
}

type templateResponse struct {
	MissionID string `json:"missionId"`
	Template  string `json:"template"`
	Hint      string `json:"hint"`
}

type profileResponse struct {
	User quest.User `json:"user"`
}

// errorResponse covers both error shapes the server emits: {"error"} and
// {"success":false,"feedback"}.
type errorResponse struct {
	Error    string `json:"error,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

func NewHTTPClient(baseURL, token string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultServer
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

func (c *HTTPClient) ListMissions(ctx context.Context) ([]mission.Mission, error) {
	var missions []mission.Mission
	if err := c.doJSON(ctx, http.MethodGet, "/api/missions", nil, &missions); err != nil {
		return nil, err
	}
	return missions, nil
}

func (c *HTTPClient) GetMission(ctx context.Context, missionID string) (mission.Mission, error) {
	if strings.TrimSpace(missionID) == "" {
		return mission.Mission{}, errors.New("mission id is required")
	}

	var m mission.Mission
	if err := c.doJSON(ctx, http.MethodGet, "/api/missions/"+url.PathEscape(missionID), nil, &m); err != nil {
		return mission.Mission{}, err
	}
	return m, nil
}

// SubmitQuery posts sql for missionID (empty for free-form practice). A
// rejected submission comes back as an *APIError carrying the feedback.
func (c *HTTPClient) SubmitQuery(ctx context.Context, sql, missionID string) (QueryResult, error) {
	var result QueryResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/query", queryRequest{SQL: sql, MissionID: missionID}, &result); err != nil {
		return QueryResult{}, err
	}
	return result, nil
}

func (c *HTTPClient) GetProgress(ctx context.Context) (quest.Progress, error) {
	var progress quest.Progress
	if err := c.doJSON(ctx, http.MethodGet, "/api/progress", nil, &progress); err != nil {
		return quest.Progress{}, err
	}
	return progress, nil
}

func (c *HTTPClient) ResetProgress(ctx context.Context) (quest.Progress, error) {
	var payload resetResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/progress/reset", nil, &payload); err != nil {
		return quest.Progress{}, err
	}
	return payload.Progress, nil
}

func (c *HTTPClient) GetRankings(ctx context.Context, limit int) ([]quest.RankingEntry, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var payload rankingsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/rankings?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Rankings, nil
}

// GetTemplate returns the query skeleton and hint for missionID.
func (c *HTTPClient) GetTemplate(ctx context.Context, missionID string) (string, string, error) {
	var payload templateResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/help/template/"+url.PathEscape(missionID), nil, &payload); err != nil {
		return "", "", err
	}
	return payload.Template, payload.Hint, nil
}

func (c *HTTPClient) Profile(ctx context.Context) (quest.User, error) {
	var payload profileResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/profile", nil, &payload); err != nil {
		return quest.User{}, err
	}
	return payload.User, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			apiErr.Message = strings.TrimSpace(payload.Feedback)
			if apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(payload.Error)
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
