package services

import (
	"context"

	"github.com/custodia-labs/msgraph-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driving"
)

// Ensure AccountService implements the interface.
var _ driving.AccountService = (*AccountService)(nil)

// AccountService reports who the configured credentials belong to.
type AccountService struct {
	client *microsoft.Client
}

// NewAccountService creates an AccountService.
func NewAccountService(client *microsoft.Client) *AccountService {
	return &AccountService{client: client}
}

// WhoAmI fetches the signed-in user's profile.
func (s *AccountService) WhoAmI(ctx context.Context) (*driving.Account, error) {
	info, err := s.client.GetUserInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &driving.Account{
		ID:          info.ID,
		DisplayName: info.DisplayName,
		Email:       info.GetUserEmail(),
	}, nil
}
