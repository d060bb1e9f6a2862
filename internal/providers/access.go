package providers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/guardian/internal/domain"
)

// RESTAccessProvider talks to the media server's account API.
type RESTAccessProvider struct {
	client *restClient
	token  string
}

// NewRESTAccessProvider creates an access provider for the given base
// URL and API token.
func NewRESTAccessProvider(baseURL, token string, logger zerolog.Logger) (*RESTAccessProvider, error) {
	c, err := newRESTClient("access", baseURL, logger)
	if err != nil {
		return nil, err
	}
	return &RESTAccessProvider{client: c, token: token}, nil
}

// userRecord is the wire shape of one shared account.
type userRecord struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Title    string `json:"title"`
	JoinedAt string `json:"joined_at"` // RFC 3339, may be empty
	Shared   bool   `json:"shared"`
}

func (r userRecord) toFact() domain.UserFact {
	f := domain.UserFact{
		ID:          r.ID,
		Email:       r.Email,
		Username:    r.Username,
		DisplayName: r.Title,
	}
	if ts, err := time.Parse(time.RFC3339, r.JoinedAt); err == nil {
		f.JoinedAt = ts.UTC()
	}
	return f
}

// ListUsers returns every account shared with the server.
func (p *RESTAccessProvider) ListUsers(ctx context.Context) ([]domain.UserFact, error) {
	var records []userRecord
	if err := p.client.getJSON(ctx, "users", p.query(), &records); err != nil {
		return nil, err
	}
	facts := make([]domain.UserFact, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		facts = append(facts, r.toFact())
	}
	return facts, nil
}

// ListActiveUsers returns the ids of accounts that currently hold
// shared access.
func (p *RESTAccessProvider) ListActiveUsers(ctx context.Context) ([]string, error) {
	var records []userRecord
	if err := p.client.getJSON(ctx, "users", p.query(), &records); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.ID != "" && r.Shared {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

// RemoveUser revokes the account's access. A 404 means the account is
// already gone and counts as success.
func (p *RESTAccessProvider) RemoveUser(ctx context.Context, id string) error {
	err := p.client.doJSON(ctx, http.MethodDelete, "users/"+url.PathEscape(id), p.query(), nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *RESTAccessProvider) query() url.Values {
	return url.Values{"token": {p.token}}
}
