package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bullpost/bullpost-client/internal/models"
)

type statusResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type verifyResponse struct {
	Status  int                 `json:"status"`
	Message string              `json:"message"`
	Token   string              `json:"token"`
	User    *models.UserProfile `json:"user"`
}

// SendOTP asks the backend to e-mail a one-time code
func (c *Client) SendOTP(ctx context.Context, email string) (string, error) {
	const op = "send otp"

	var resp statusResponse
	err := c.call(ctx, op, http.MethodPost, "auth/send-otp", false,
		map[string]string{"email": email}, &resp)
	if err != nil {
		return "", err
	}
	if err := checkStatus(op, resp.Status, resp.Message); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VerifyOTP exchanges an e-mail and code for a session
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*models.Session, error) {
	const op = "verify otp"

	var resp verifyResponse
	err := c.call(ctx, op, http.MethodPost, "auth/verify-otp", false,
		map[string]string{"email": email, "otp": otp}, &resp)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(op, resp.Status, resp.Message); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &APIError{Operation: op, StatusCode: http.StatusOK, Message: firstNonEmpty(resp.Message, "no token in response")}
	}

	return &models.Session{Token: resp.Token, User: resp.User}, nil
}

// Logout invalidates the bearer token on the backend
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, "logout", http.MethodPost, "auth/logout", true, nil, nil)
}

// OAuthURL returns the address the user must visit to authorise Twitter
func (c *Client) OAuthURL(ctx context.Context) (string, error) {
	const op = "oauth url"

	var resp struct {
		URL     string `json:"url"`
		AuthURL string `json:"authUrl"`
	}
	// The token is attached when present so the backend can link the
	// Twitter account to an existing user.
	req, err := c.newRequest(ctx, c.Token() != "")
	if err != nil {
		return "", err
	}
	if err := c.execute(op, http.MethodGet, "auth/oauth-url", req, &resp); err != nil {
		return "", err
	}

	u := firstNonEmpty(resp.URL, resp.AuthURL)
	if u == "" {
		return "", fmt.Errorf("%s: response carried no url", op)
	}
	return u, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
