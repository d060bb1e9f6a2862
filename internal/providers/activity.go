package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/guardian/internal/domain"
)

// RESTActivityProvider reads watch history from the tracking service.
// The API is a single endpoint taking a cmd parameter and answering
// with a result/data envelope.
type RESTActivityProvider struct {
	client *restClient
	apiKey string
}

// NewRESTActivityProvider creates an activity provider for the given
// base URL and API key.
func NewRESTActivityProvider(baseURL, apiKey string, logger zerolog.Logger) (*RESTActivityProvider, error) {
	c, err := newRESTClient("activity", baseURL, logger)
	if err != nil {
		return nil, err
	}
	return &RESTActivityProvider{client: c, apiKey: apiKey}, nil
}

type activityEnvelope struct {
	Response struct {
		Result  string          `json:"result"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"response"`
}

// call issues one cmd against the API and returns the data payload.
func (p *RESTActivityProvider) call(ctx context.Context, cmd string, params url.Values, out any) error {
	q := url.Values{"apikey": {p.apiKey}, "cmd": {cmd}}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	var env activityEnvelope
	if err := p.client.getJSON(ctx, "api/v2", q, &env); err != nil {
		return err
	}
	if env.Response.Result != "success" {
		return permanentErr("activity", cmd, fmt.Errorf("api result %q: %s", env.Response.Result, env.Response.Message))
	}
	if out == nil || env.Response.Data == nil {
		return nil
	}
	if err := json.Unmarshal(env.Response.Data, out); err != nil {
		return permanentErr("activity", cmd, fmt.Errorf("decode data: %w", err))
	}
	return nil
}

// ListUsers returns every identity the tracking service knows about,
// with the coarse last-seen timestamp it keeps per user.
func (p *RESTActivityProvider) ListUsers(ctx context.Context) ([]domain.UserFact, error) {
	var data []struct {
		UserID       int64  `json:"user_id"`
		Username     string `json:"username"`
		FriendlyName string `json:"friendly_name"`
		Email        string `json:"email"`
		LastSeen     int64  `json:"last_seen"` // unix seconds, 0 when never
	}
	if err := p.call(ctx, "get_users", nil, &data); err != nil {
		return nil, err
	}

	facts := make([]domain.UserFact, 0, len(data))
	for _, u := range data {
		if u.UserID == 0 {
			continue
		}
		f := domain.UserFact{
			ID:          strconv.FormatInt(u.UserID, 10),
			Email:       u.Email,
			Username:    u.Username,
			DisplayName: u.FriendlyName,
		}
		if u.LastSeen > 0 {
			ts := time.Unix(u.LastSeen, 0).UTC()
			f.LastActivityAt = &ts
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// LastActivityOf returns the user's most recent watch timestamp, or nil
// when no history exists.
func (p *RESTActivityProvider) LastActivityOf(ctx context.Context, id string) (*time.Time, error) {
	var data struct {
		Records []struct {
			Date int64 `json:"date"` // unix seconds
		} `json:"data"`
	}
	params := url.Values{
		"user_id":      {id},
		"length":       {"1"},
		"order_column": {"date"},
		"order_dir":    {"desc"},
	}
	if err := p.call(ctx, "get_history", params, &data); err != nil {
		return nil, err
	}
	if len(data.Records) == 0 || data.Records[0].Date == 0 {
		return nil, nil
	}
	ts := time.Unix(data.Records[0].Date, 0).UTC()
	return &ts, nil
}

// DeleteUser purges the user's watch history after a removal.
func (p *RESTActivityProvider) DeleteUser(ctx context.Context, id string) error {
	return p.call(ctx, "delete_user", url.Values{"user_id": {id}}, nil)
}
