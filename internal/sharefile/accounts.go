package sharefile

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

type clientUserResponse struct {
	ID        string `json:"Id"`
	Email     string `json:"Email"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Company   string `json:"Company"`
}

type clientListResponse struct {
	Value []clientUserResponse `json:"value"`
}

type createClientRequest struct {
	Email       string              `json:"Email"`
	FirstName   string              `json:"FirstName"`
	LastName    string              `json:"LastName"`
	Company     string              `json:"Company"`
	Password    string              `json:"Password"`
	Preferences clientPreferences   `json:"Preferences"`
	DefaultZone *defaultZoneRequest `json:"DefaultZone,omitempty"`
}

type clientPreferences struct {
	CanResetPassword  bool `json:"CanResetPassword"`
	CanViewMySettings bool `json:"CanViewMySettings"`
}

type defaultZoneRequest struct {
	ID string `json:"Id"`
}

func (r *clientUserResponse) toClientUser() ClientUser {
	return ClientUser{
		ID:        r.ID,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Company:   r.Company,
	}
}

// GetClients lists the account's client users.
func (c *Client) GetClients(ctx context.Context) ([]ClientUser, error) {
	c.logger.Debug("listing clients")

	var lr clientListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/Accounts/GetClients", nil, &lr); err != nil {
		return nil, err
	}

	users := make([]ClientUser, 0, len(lr.Value))
	for i := range lr.Value {
		users = append(users, lr.Value[i].toClientUser())
	}

	return users, nil
}

// CreateClient creates a client user and returns it as the server stored it.
func (c *Client) CreateClient(ctx context.Context, u NewClientUser) (*ClientUser, error) {
	if u.Email == "" {
		return nil, fmt.Errorf("sharefile: client email is empty")
	}

	c.logger.Info("creating client",
		slog.String("email", u.Email),
		slog.String("company", u.Company),
	)

	req := createClientRequest{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Company:   u.Company,
		Password:  u.Password,
		Preferences: clientPreferences{
			CanResetPassword:  u.CanResetPassword,
			CanViewMySettings: u.CanViewMySettings,
		},
	}

	if u.DefaultZoneID != "" {
		req.DefaultZone = &defaultZoneRequest{ID: u.DefaultZoneID}
	}

	var cr clientUserResponse
	if err := c.doJSON(ctx, http.MethodPost, "/Users", req, &cr); err != nil {
		return nil, err
	}

	user := cr.toClientUser()

	return &user, nil
}
