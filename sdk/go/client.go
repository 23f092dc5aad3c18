package northstarsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Northstar HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Owner is a display-ready objective owner.
type Owner struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// KeyResult is a measurable sub-goal.
type KeyResult struct {
	KRID     string  `json:"krId"`
	Type     string  `json:"type"`
	Title    string  `json:"title,omitempty"`
	Progress float64 `json:"progress"`
	Current  float64 `json:"current"`
	Target   float64 `json:"target"`
	Unit     string  `json:"unit,omitempty"`
	Complete bool    `json:"complete"`
}

// Objective represents the API objective model.
type Objective struct {
	ID            string      `json:"id"`
	CreatedBy     string      `json:"createdBy"`
	Objective     string      `json:"objective"`
	Description   string      `json:"description,omitempty"`
	Category      string      `json:"category"`
	Owners        []Owner     `json:"owners"`
	KeyResults    []KeyResult `json:"keyResults"`
	Status        string      `json:"status"`
	DisplayStatus string      `json:"displayStatus"`
	StartDate     string      `json:"startDate,omitempty"`
	EndDate       string      `json:"endDate,omitempty"`
	Department    string      `json:"department,omitempty"`
	CreatedAt     string      `json:"createdAt"`
	UpdatedAt     string      `json:"updatedAt"`
}

// Comment is a discussion entry on an objective.
type Comment struct {
	ID          string   `json:"id"`
	ObjectiveID string   `json:"objectiveId"`
	AuthorID    string   `json:"authorId"`
	Text        string   `json:"text"`
	Mentions    []string `json:"mentions,omitempty"`
	CreatedAt   string   `json:"createdAt"`
}

// Notification is an in-app notification record.
type Notification struct {
	ID          string  `json:"id"`
	RecipientID string  `json:"recipientId"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Message     string  `json:"message"`
	Read        bool    `json:"read"`
	ReadAt      *string `json:"readAt,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ObjectiveFilters narrows ListObjectives.
type ObjectiveFilters struct {
	Status     string
	Category   string
	Department string
	CreatedBy  []string
	Owners     []string
	Date       string
	Quarters   []string
	Search     string
}

// CreateObjective creates an objective.
func (c *Client) CreateObjective(ctx context.Context, text, category string, ownerIDs []string) (Objective, error) {
	body := map[string]any{
		"objective": text,
		"category":  category,
		"owners":    ownerIDs,
	}
	var resp Objective
	err := c.do(ctx, http.MethodPost, "v1/objectives", body, &resp)
	return resp, err
}

// ListObjectives returns the objectives visible to the caller.
func (c *Client) ListObjectives(ctx context.Context, f ObjectiveFilters) ([]Objective, error) {
	q := url.Values{}
	setIf := func(key, val string) {
		if val != "" {
			q.Set(key, val)
		}
	}
	setIf("status", f.Status)
	setIf("category", f.Category)
	setIf("department", f.Department)
	setIf("date", f.Date)
	setIf("search", f.Search)
	for _, v := range f.CreatedBy {
		q.Add("createdBy", v)
	}
	for _, v := range f.Owners {
		q.Add("owners", v)
	}
	for _, v := range f.Quarters {
		q.Add("quarters", v)
	}
	endpoint := "v1/objectives"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp []Objective
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// GetObjective fetches one objective.
func (c *Client) GetObjective(ctx context.Context, id string) (Objective, error) {
	var resp Objective
	err := c.do(ctx, http.MethodGet, "v1/objectives/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// UpdateObjective patches the allowlisted objective fields.
func (c *Client) UpdateObjective(ctx context.Context, id string, fields map[string]any) (Objective, error) {
	var resp Objective
	err := c.do(ctx, http.MethodPatch, "v1/objectives/"+url.PathEscape(id), fields, &resp)
	return resp, err
}

// ArchiveObjective moves a live objective to archived.
func (c *Client) ArchiveObjective(ctx context.Context, id string) (Objective, error) {
	var resp Objective
	err := c.do(ctx, http.MethodPost, "v1/objectives/"+url.PathEscape(id)+"/archive", nil, &resp)
	return resp, err
}

// RestoreObjective moves an archived or deleted objective back to active.
func (c *Client) RestoreObjective(ctx context.Context, id string) (Objective, error) {
	var resp Objective
	err := c.do(ctx, http.MethodPost, "v1/objectives/"+url.PathEscape(id)+"/restore", nil, &resp)
	return resp, err
}

// DeleteObjective soft-deletes an objective.
func (c *Client) DeleteObjective(ctx context.Context, id string) (Objective, error) {
	var resp Objective
	err := c.do(ctx, http.MethodDelete, "v1/objectives/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// PurgeObjective permanently removes a soft-deleted objective.
func (c *Client) PurgeObjective(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v1/objectives/"+url.PathEscape(id)+"/purge", nil, nil)
}

// AddComment posts a comment; mentions in the text notify their users.
func (c *Client) AddComment(ctx context.Context, objectiveID, text string) (Comment, error) {
	var resp Comment
	endpoint := "v1/objectives/" + url.PathEscape(objectiveID) + "/comments"
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"text": text}, &resp)
	return resp, err
}

// ListComments returns an objective's comments oldest first.
func (c *Client) ListComments(ctx context.Context, objectiveID string) ([]Comment, error) {
	var resp []Comment
	endpoint := "v1/objectives/" + url.PathEscape(objectiveID) + "/comments"
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Notifications returns the caller's newest notifications.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var resp []Notification
	err := c.do(ctx, http.MethodGet, "v1/notifications", nil, &resp)
	return resp, err
}

// MarkRead marks the given notification ids read; empty marks all unread.
func (c *Client) MarkRead(ctx context.Context, ids []string) (int64, error) {
	var resp struct {
		Updated int64 `json:"updated"`
	}
	err := c.do(ctx, http.MethodPost, "v1/notifications/read", map[string]any{"ids": ids}, &resp)
	return resp.Updated, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
