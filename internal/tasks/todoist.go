// Package tasks lists outstanding tasks from the Todoist REST API.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agenthands/daybreak/internal/briefing"
)

const defaultBaseURL = "https://api.todoist.com/rest/v2"

type Client struct {
	apiToken   string
	baseURL    string
	filter     string
	httpClient *http.Client
}

// NewClient builds a Todoist client. filter is optional Todoist filter
// syntax such as "today | overdue"; empty lists everything.
func NewClient(apiToken, baseURL, filter string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiToken:   apiToken,
		baseURL:    baseURL,
		filter:     filter,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type todoistTask struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// ListTasks returns tasks in the order Todoist returns them.
func (c *Client) ListTasks(ctx context.Context) ([]briefing.Task, error) {
	reqURL := c.baseURL + "/tasks"
	if c.filter != "" {
		reqURL += "?filter=" + url.QueryEscape(c.filter)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("task request returned status %d", resp.StatusCode)
	}

	var raw []todoistTask
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding task response: %w", err)
	}

	tasks := make([]briefing.Task, len(raw))
	for i, t := range raw {
		tasks[i] = briefing.Task{ID: t.ID, Content: t.Content}
	}
	return tasks, nil
}
