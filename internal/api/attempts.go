package api

import (
	"context"
	"fmt"
	"net/url"
)

// StartAttempt opens a new attempt. ClientRef is a client-generated UUID so
// a crash between this call and the local snapshot stays resumable: the
// backend returns the existing attempt for a repeated ref instead of a new one.
func (c *Client) StartAttempt(ctx context.Context, in StartAttemptInput) (Attempt, error) {
	var out Attempt
	if err := c.post(ctx, "/api/v1/attempts", in, &out); err != nil {
		return Attempt{}, err
	}
	return out, nil
}

func (c *Client) Commit(ctx context.Context, attemptID string, in CommitmentInput) (Attempt, error) {
	var out Attempt
	if err := c.patch(ctx, "/api/v1/attempts/"+url.PathEscape(attemptID), in, &out); err != nil {
		return Attempt{}, err
	}
	return out, nil
}

func (c *Client) Report(ctx context.Context, attemptID string, in ReportInput) (Attempt, error) {
	var out Attempt
	if err := c.patch(ctx, "/api/v1/attempts/"+url.PathEscape(attemptID), in, &out); err != nil {
		return Attempt{}, err
	}
	return out, nil
}

// Abandon flags the attempt for the backend's avoidance analytics, noting
// the phase the user bailed from.
func (c *Client) Abandon(ctx context.Context, attemptID, phase string) error {
	in := struct {
		Status         string `json:"status"`
		AbandonedPhase string `json:"abandoned_phase"`
	}{Status: "abandoned", AbandonedPhase: phase}
	return c.patch(ctx, "/api/v1/attempts/"+url.PathEscape(attemptID), in, nil)
}

func (c *Client) AttemptsForProblem(ctx context.Context, problemID string) ([]Attempt, error) {
	q := url.Values{}
	q.Set("problem_id", problemID)
	var out struct {
		Attempts []Attempt `json:"attempts"`
	}
	if err := c.get(ctx, "/api/v1/attempts", q, &out); err != nil {
		return nil, err
	}
	return out.Attempts, nil
}

// GenerateReflection asks the backend to produce reflection prompts for the
// attempt. Generation is backend-owned; the client renders whatever comes back.
func (c *Client) GenerateReflection(ctx context.Context, attemptID string) (Reflection, error) {
	var out Reflection
	path := fmt.Sprintf("/api/v1/attempts/%s/reflection", url.PathEscape(attemptID))
	if err := c.post(ctx, path, nil, &out); err != nil {
		return Reflection{}, err
	}
	return out, nil
}

// SaveReflection stores the user's written reflection. PUT so a re-save
// after an edit replaces the text.
func (c *Client) SaveReflection(ctx context.Context, attemptID, text string) (Reflection, error) {
	in := struct {
		Text string `json:"text"`
	}{Text: text}
	var out Reflection
	path := fmt.Sprintf("/api/v1/attempts/%s/reflection", url.PathEscape(attemptID))
	if err := c.put(ctx, path, in, &out); err != nil {
		return Reflection{}, err
	}
	return out, nil
}
