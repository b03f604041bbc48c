package plex

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type signInResponse struct {
	XMLName   xml.Name `xml:"user"`
	TokenAttr string   `xml:"authenticationToken,attr"`
	TokenElem string   `xml:"authentication-token"`
}

func (r signInResponse) token() string {
	if t := strings.TrimSpace(r.TokenAttr); t != "" {
		return t
	}
	return strings.TrimSpace(r.TokenElem)
}

// SignIn exchanges username and password for an authentication token. Any
// failure, including a response without a token, is returned as an error for
// Bootstrap to classify.
func (c *Connector) SignIn(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", errors.New("username and password are required")
	}
	req, err := http.NewRequest(http.MethodPost, c.settings.SignInURL, nil)
	if err != nil {
		return "", fmt.Errorf("build sign-in request: %w", err)
	}
	req.SetBasicAuth(username, password)

	body, err := c.do(ctx, c.client, req, "")
	if err != nil {
		return "", err
	}

	var resp signInResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode sign-in response: %w", err)
	}
	token := resp.token()
	if token == "" {
		return "", errors.New("sign-in response carried no authentication token")
	}
	return token, nil
}
