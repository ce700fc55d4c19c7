package linkedin

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// OAuth endpoints live on www.linkedin.com, not the API host.
var oauthEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.linkedin.com/oauth/v2/authorization",
	TokenURL: "https://www.linkedin.com/oauth/v2/accessToken",
}

// Member Data Portability consent scope.
var oauthScopes = []string{"r_dma_portability_3rd_party"}

func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       oauthScopes,
		Endpoint:     oauthEndpoint,
	}
}

// ExchangeCode swaps an authorization code for an access token.
func ExchangeCode(ctx context.Context, conf *oauth2.Config, code string) (*oauth2.Token, error) {
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}
