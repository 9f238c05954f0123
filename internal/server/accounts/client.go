// Package accounts talks to the external account service, a
// Mastodon-compatible REST API authenticated with an application token.
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/netx"
)

// Account is the subset of the account entity this service reads.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
}

// NewAccount is the registration payload.
type NewAccount struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	Agreement bool   `json:"agreement"`
	Locale    string `json:"locale"`
}

type validationError struct {
	Error   string `json:"error"`
	Details map[string][]struct {
		Error string `json:"error"`
	} `json:"details"`
}

// DeleteMode selects the endpoint used to remove an account.
type DeleteMode string

const (
	// DeleteDirect calls DELETE /api/v1/accounts/{id} with the application token.
	DeleteDirect DeleteMode = "direct"
	// DeleteAdmin suspends the account through the admin API, then deletes it
	// there. The admin API only deletes suspended accounts.
	DeleteAdmin DeleteMode = "admin"
)

// Client is the account service REST client.
type Client struct {
	baseURL    string
	token      string
	http       *http.Client
	deleteMode DeleteMode
}

// Option customizes a Client.
type Option func(*Client)

// WithDeleteMode sets how Delete removes accounts. The default is DeleteDirect.
func WithDeleteMode(m DeleteMode) Option {
	return func(c *Client) { c.deleteMode = m }
}

func NewClient(baseURL, token string, httpClient *http.Client, opts ...Option) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient, deleteMode: DeleteDirect}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Create registers a new account. Every failure wraps
// common.ErrAccountCreationFailed; a taken username additionally wraps
// common.ErrDuplicateUsername.
func (c *Client) Create(ctx context.Context, in NewAccount) error {
	err := netx.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+"/api/v1/accounts", netx.BearerAuth(c.token), in, nil)
	if err == nil {
		return nil
	}

	var se *netx.StatusError
	if errors.As(err, &se) && se.Code == http.StatusUnprocessableEntity && usernameTaken(se.Body) {
		return fmt.Errorf("%w: %w", common.ErrAccountCreationFailed, common.ErrDuplicateUsername)
	}
	return fmt.Errorf("%w: %v", common.ErrAccountCreationFailed, err)
}

func usernameTaken(body string) bool {
	var ve validationError
	if err := json.Unmarshal([]byte(body), &ve); err != nil {
		return false
	}
	for _, d := range ve.Details["username"] {
		if d.Error == "ERR_TAKEN" {
			return true
		}
	}
	return false
}

// Lookup resolves an account by its acct (username for local accounts).
// An unknown account yields common.ErrorNotFound.
func (c *Client) Lookup(ctx context.Context, acct string) (*Account, error) {
	var out Account
	u := c.baseURL + "/api/v1/accounts/lookup?acct=" + url.QueryEscape(acct)
	if err := netx.DoJSON(ctx, c.http, http.MethodGet, u, netx.BearerAuth(c.token), nil, &out); err != nil {
		var se *netx.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: account lookup: %v", common.ErrUnavailable, err)
	}
	return &out, nil
}

type adminAction struct {
	Type string `json:"type"`
}

// Delete removes an account using the configured DeleteMode.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c.deleteMode == DeleteAdmin {
		return c.adminDelete(ctx, id)
	}

	u := c.baseURL + "/api/v1/accounts/" + url.PathEscape(id)
	if err := netx.DoJSON(ctx, c.http, http.MethodDelete, u, netx.BearerAuth(c.token), nil, nil); err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	return nil
}

func (c *Client) adminDelete(ctx context.Context, id string) error {
	base := c.baseURL + "/api/v1/admin/accounts/" + url.PathEscape(id)
	auth := netx.BearerAuth(c.token)

	if err := netx.DoJSON(ctx, c.http, http.MethodPost, base+"/action", auth, adminAction{Type: "suspend"}, nil); err != nil {
		return fmt.Errorf("suspend account %s: %w", id, err)
	}
	if err := netx.DoJSON(ctx, c.http, http.MethodDelete, base, auth, nil, nil); err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	return nil
}

// UsernameExists reports whether a local account already uses username.
func (c *Client) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := c.Lookup(ctx, username)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
