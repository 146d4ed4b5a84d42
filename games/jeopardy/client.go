/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jeopardy

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
)

// APIClient talks to the public quiz API.
type APIClient struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &APIClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
	}
}

func (c *APIClient) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *APIClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status code: %d, response: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

type categoriesResponse struct {
	Categories []CategorySummary `json:"categories"`
}

type apiClue struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type apiCategoryDetails struct {
	ID    int       `json:"id"`
	Title string    `json:"title"`
	Clues []apiClue `json:"clues"`
}

type detailsResponse struct {
	Details map[string]apiCategoryDetails `json:"details"`
}

func (c *APIClient) Categories(ctx context.Context, count int) ([]CategorySummary, error) {
	endpoint := CategoriesEndpoint + "?" + url.Values{"count": {strconv.Itoa(count)}}.Encode()

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	var response categoriesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}

	return response.Categories, nil
}

func (c *APIClient) Clues(ctx context.Context, categoryID int) ([]Clue, error) {
	id := strconv.Itoa(categoryID)

	body, err := c.get(ctx, DetailsEndpoint+id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", categoryID, err)
	}

	var response detailsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category %d: %w", categoryID, err)
	}

	details, ok := response.Details[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", categoryID, ErrUnknownCategory)
	}

	clues := make([]Clue, 0, len(details.Clues))
	for _, clue := range details.Clues {
		clues = append(clues, Clue{
			ID:     clue.ID,
			Prompt: strings.TrimSpace(clue.Question),
			Reveal: strings.TrimSpace(clue.Answer),
		})
	}

	return clues, nil
}
