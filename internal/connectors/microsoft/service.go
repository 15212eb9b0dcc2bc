package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
)

// UserInfo contains the signed-in user's basic profile information.
type UserInfo struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// GetUserInfo fetches the signed-in user's profile. It is a cheap way to
// check that authentication works.
func (c *Client) GetUserInfo(ctx context.Context) (*UserInfo, error) {
	resp, err := c.Request("me").
		Query(domain.QueryOptions{Select: []string{"id", "displayName", "mail", "userPrincipalName"}}).
		Send(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}

	var userInfo UserInfo
	if err := json.Unmarshal(resp.Content, &userInfo); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	return &userInfo, nil
}

// GetUserEmail returns the user's email address.
// Falls back to userPrincipalName if mail is not set.
func (u *UserInfo) GetUserEmail() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}
