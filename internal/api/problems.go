package api

import (
	"context"
	"fmt"
	"net/url"
)

func (c *Client) Problems(ctx context.Context, filter ProblemFilter) ([]ProblemSummary, error) {
	q := url.Values{}
	if filter.Difficulty != "" {
		q.Set("difficulty", filter.Difficulty)
	}
	if filter.PatternID != "" {
		q.Set("pattern", filter.PatternID)
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	var out struct {
		Problems []ProblemSummary `json:"problems"`
	}
	if err := c.get(ctx, "/api/v1/problems", q, &out); err != nil {
		return nil, err
	}
	return out.Problems, nil
}

func (c *Client) Problem(ctx context.Context, id string) (ProblemDetail, error) {
	var out ProblemDetail
	if err := c.get(ctx, "/api/v1/problems/"+url.PathEscape(id), nil, &out); err != nil {
		return ProblemDetail{}, err
	}
	return out, nil
}

// Analysis reveals patterns and traps. The backend rejects the call until
// the active attempt has a recorded report.
func (c *Client) Analysis(ctx context.Context, problemID string) (Analysis, error) {
	var out Analysis
	path := fmt.Sprintf("/api/v1/problems/%s/analysis", url.PathEscape(problemID))
	if err := c.get(ctx, path, nil, &out); err != nil {
		return Analysis{}, err
	}
	return out, nil
}

func (c *Client) Patterns(ctx context.Context) ([]PatternInfo, error) {
	var out struct {
		Patterns []PatternInfo `json:"patterns"`
	}
	if err := c.get(ctx, "/api/v1/patterns", nil, &out); err != nil {
		return nil, err
	}
	return out.Patterns, nil
}

func (c *Client) PatternStats(ctx context.Context, patternID string) (PatternStats, error) {
	var out PatternStats
	path := fmt.Sprintf("/api/v1/patterns/%s/stats", url.PathEscape(patternID))
	if err := c.get(ctx, path, nil, &out); err != nil {
		return PatternStats{}, err
	}
	return out, nil
}
