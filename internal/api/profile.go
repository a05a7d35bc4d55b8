package api

import "context"

func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var out Profile
	if err := c.get(ctx, "/api/v1/profile", nil, &out); err != nil {
		return Profile{}, err
	}
	return out, nil
}

// BlindSpots fetches the server-computed report. The four buckets
// (overconfident, fragile, decaying, avoided) arrive fully analyzed; the
// client only renders them.
func (c *Client) BlindSpots(ctx context.Context) (BlindSpotReport, error) {
	var out BlindSpotReport
	if err := c.get(ctx, "/api/v1/analytics/blindspots", nil, &out); err != nil {
		return BlindSpotReport{}, err
	}
	return out, nil
}
