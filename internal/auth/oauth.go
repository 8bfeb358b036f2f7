package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"
)

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
}

// OAuthIdentity signs users in with Discord and reads their account through
// the Discord API.
type OAuthIdentity struct {
	config *oauth2.Config
}

func NewOAuthIdentity(c OAuthConfig) *OAuthIdentity {
	endpoint := oauth2.Endpoint{
		AuthURL:  discordgo.EndpointOauth2 + "authorize",
		TokenURL: discordgo.EndpointOauth2 + "token",
	}
	if c.AuthURL != "" {
		endpoint.AuthURL = c.AuthURL
	}
	if c.TokenURL != "" {
		endpoint.TokenURL = c.TokenURL
	}
	return &OAuthIdentity{
		config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{"identify"},
		},
	}
}

func (o *OAuthIdentity) AuthCodeURL(state string) string {
	return o.config.AuthCodeURL(state)
}

func (o *OAuthIdentity) Identify(ctx context.Context, code string) (Identity, error) {
	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to exchange code: %w", err)
	}

	s, err := discordgo.New("Bearer " + token.AccessToken)
	if err != nil {
		return Identity{}, err
	}
	if client, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok {
		s.Client = client
	}

	u, err := s.User("@me")
	if err != nil {
		return Identity{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return Identity{
		ProviderID: u.ID,
		Username:   u.Username,
		AvatarURL:  u.AvatarURL("64"),
	}, nil
}
