package clash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"cwl-tracker/internal/config"
	"cwl-tracker/internal/domain"
)

// ErrNotFound means the upstream API answered 404 for a tag: the player
// or clan does not exist. Callers that distinguish "invalid tag" from
// transient failure check for this.
var ErrNotFound = errors.New("clash: tag not found")

// UpstreamError carries a non-2xx upstream response verbatim so the
// proxy gateway can relay status and body unchanged.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("clash: upstream returned %d", e.StatusCode)
}

// API is the slice of the upstream Clash of Clans API this service
// uses. Implemented by Client; faked in tests.
type API interface {
	GetClanMembers(ctx context.Context, clanTag string) ([]domain.LiveMember, error)
	GetPlayer(ctx context.Context, playerTag string) (*PlayerResponse, error)
	Raw(ctx context.Context, endpoint, tag string) (int, []byte, error)
}

// Client talks to the Clash of Clans API through the configured proxy
// base URL, attaching the bearer token on every request.
type Client struct {
	token   string
	baseURL string
	client  *fasthttp.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		token:   cfg.COCAPIToken,
		baseURL: cfg.COCAPIBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// PlayerResponse is the subset of the upstream player object the
// tracker cares about. Parsed here so nothing downstream guesses at
// response shape.
type PlayerResponse struct {
	Tag           string `json:"tag"`
	Name          string `json:"name"`
	TownHallLevel int    `json:"townHallLevel"`
	ExpLevel      int    `json:"expLevel"`
	Trophies      int    `json:"trophies"`
	Role          string `json:"role"`
	League        struct {
		Name string `json:"name"`
	} `json:"league"`
}

type memberListResponse struct {
	Items []domain.LiveMember `json:"items"`
}

// memberListURL and playerURL embed the tag as %23<TAG>: the upstream
// API wants the '#' URL-escaped, never literal.
func (c *Client) memberListURL(clanTag string) string {
	return fmt.Sprintf("%s/clans/%%23%s/members", c.baseURL, stripHash(clanTag))
}

func (c *Client) playerURL(playerTag string) string {
	return fmt.Sprintf("%s/players/%%23%s", c.baseURL, stripHash(playerTag))
}

func stripHash(tag string) string {
	if len(tag) > 0 && tag[0] == '#' {
		return tag[1:]
	}
	return tag
}

// GetClanMembers fetches the live member list for a clan. A clan with
// no members yields an empty slice, not an error.
func (c *Client) GetClanMembers(ctx context.Context, clanTag string) ([]domain.LiveMember, error) {
	status, body, err := c.do(ctx, c.memberListURL(clanTag))
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != fasthttp.StatusOK {
		return nil, &UpstreamError{StatusCode: status, Body: body}
	}

	var result memberListResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("clash: parsing member list: %w", err)
	}
	return result.Items, nil
}

// GetPlayer fetches a single player by tag. Returns ErrNotFound for an
// unknown tag.
func (c *Client) GetPlayer(ctx context.Context, playerTag string) (*PlayerResponse, error) {
	status, body, err := c.do(ctx, c.playerURL(playerTag))
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != fasthttp.StatusOK {
		return nil, &UpstreamError{StatusCode: status, Body: body}
	}

	var result PlayerResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("clash: parsing player: %w", err)
	}
	return &result, nil
}

// Raw performs the request for the proxy gateway and hands back status
// and body untouched. endpoint must be "members" or "player".
func (c *Client) Raw(ctx context.Context, endpoint, tag string) (int, []byte, error) {
	var url string
	switch endpoint {
	case "members":
		url = c.memberListURL(tag)
	case "player":
		url = c.playerURL(tag)
	default:
		return 0, nil, fmt.Errorf("clash: unknown endpoint %q", endpoint)
	}
	return c.do(ctx, url)
}

func (c *Client) do(ctx context.Context, url string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return 0, nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return 0, nil, err
		}
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return resp.StatusCode(), body, nil
}
