package upstream

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"whatsapp-console/internal/models"
)

// AuthResult is the credential exchange response. RequiresOTP means the
// login is pending a one-time code and no token was issued yet.
type AuthResult struct {
	Token        string               `json:"token,omitempty"`
	RefreshToken string               `json:"refreshToken,omitempty"`
	RequiresOTP  bool                 `json:"requiresOTP,omitempty"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
	User         *models.User         `json:"user,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.doPublic(ctx, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	c.persistAuth(&out)
	return &out, nil
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*AuthResult, error) {
	var out AuthResult
	err := c.doPublic(ctx, http.MethodPost, "/auth/verify-otp",
		map[string]string{"email": email, "otp": otp}, &out)
	if err != nil {
		return nil, err
	}
	c.persistAuth(&out)
	return &out, nil
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var out AuthResult
	if err := c.doPublic(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	c.persistAuth(&out)
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, user models.User) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, "/users/me", user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout drops the stored credential pair. The platform keeps no
// server-side console session to tear down.
func (c *Client) Logout() error {
	return c.creds.ClearCredentials()
}

func (c *Client) persistAuth(res *AuthResult) {
	if res.Token == "" {
		return
	}
	err := c.creds.SaveCredentials(Credentials{
		Token:        res.Token,
		RefreshToken: res.RefreshToken,
	})
	if err != nil {
		// the session still works in memory; it just won't survive
		// a restart
		c.log.Warn("failed to persist credentials", zap.Error(err))
	}
}
