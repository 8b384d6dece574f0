package consolesdk

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/gpuconsole/pkg/httpx"
)

// Client talks to the console team service. A zero actor makes anonymous
// requests, which only the health and invitation lookup routes accept.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	userID string
	email  string
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithActor returns a copy of c that identifies as the given user.
func (c *Client) WithActor(userID, email string) *Client {
	cp := *c
	cp.userID = userID
	cp.email = email
	return &cp
}

func (c *Client) actorHeaders() map[string]string {
	if c.userID == "" {
		return nil
	}
	h := map[string]string{httpx.HeaderUserID: c.userID}
	if c.email != "" {
		h[httpx.HeaderUserEmail] = c.email
	}
	return h
}
