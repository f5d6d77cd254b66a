package service

import (
	"context"
	"net/http"

	"github.com/iurnickita/scpclient/internal/gateway"
	"github.com/iurnickita/scpclient/internal/model"
)

// AuthClient talks to the /auth endpoints through a public gateway.
type AuthClient struct {
	client Doer
}

func NewAuthClient(client Doer) *AuthClient {
	return &AuthClient{client: client}
}

// IssueToken обменивает логин и пароль на токен (form-encoded)
func (c *AuthClient) IssueToken(ctx context.Context, username string, password string) (model.TokenResponse, error) {
	var resp model.TokenResponse
	err := c.client.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/auth/token",
		Form:   map[string]string{"username": username, "password": password},
	}, &resp)
	return resp, err
}

// Register передает поля регистрации параметрами запроса
func (c *AuthClient) Register(ctx context.Context, registration model.Registration) (model.User, error) {
	var user model.User
	err := c.client.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Query: map[string]string{
			"email":    registration.Email,
			"password": registration.Password,
			"name":     registration.Name,
			"role":     registration.Role,
		},
	}, &user)
	return user, err
}
