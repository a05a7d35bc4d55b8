package api

import "context"

func (c *Client) Register(ctx context.Context, in RegisterInput) (TokenPair, error) {
	var out TokenPair
	if err := c.postOpen(ctx, "/api/v1/auth/register", in, &out); err != nil {
		return TokenPair{}, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	in := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}
	var out TokenPair
	if err := c.postOpen(ctx, "/api/v1/auth/login", in, &out); err != nil {
		return TokenPair{}, err
	}
	return out, nil
}

// Refresh exchanges a refresh token for a new pair. It deliberately skips
// the TokenSource: the auth manager calls it while holding its own lock.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	in := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}
	var out TokenPair
	if err := c.postOpen(ctx, "/api/v1/auth/refresh", in, &out); err != nil {
		return TokenPair{}, err
	}
	return out, nil
}

// Logout revokes the refresh token server-side. Local token cleanup is the
// auth manager's job regardless of whether this call succeeds.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	in := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}
	return c.post(ctx, "/api/v1/auth/logout", in, nil)
}
