package services

import (
	"context"
	"strings"

	"code.gitea.io/sdk/gitea"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// GiteaProfile is the part of a Gitea account used to sign a user in.
type GiteaProfile struct {
	ID       int64
	UserName string
	Email    string
}

// GiteaAuth signs users in through a Gitea instance acting as OAuth2 provider.
type GiteaAuth struct {
	baseURL     string
	oauthConfig *oauth2.Config
}

func NewGiteaAuth(baseURL, clientID, clientSecret, redirectURL string) *GiteaAuth {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &GiteaAuth{
		baseURL: baseURL,
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  baseURL + "/login/oauth/authorize",
				TokenURL: baseURL + "/login/oauth/access_token",
			},
			Scopes: []string{"read:user"},
		},
	}
}

func (g *GiteaAuth) AuthCodeURL(state string) string {
	return g.oauthConfig.AuthCodeURL(state)
}

// Exchange trades the callback code for a token and fetches the account it
// belongs to.
func (g *GiteaAuth) Exchange(ctx context.Context, code string) (*GiteaProfile, error) {
	token, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "exchange gitea code")
	}

	client, err := gitea.NewClient(g.baseURL, gitea.SetToken(token.AccessToken), gitea.SetContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "create gitea client")
	}

	u, _, err := client.GetMyUserInfo()
	if err != nil {
		return nil, errors.Wrap(err, "get gitea user")
	}
	if u.Email == "" {
		return nil, errors.Errorf("gitea user %q has no email", u.UserName)
	}
	return &GiteaProfile{ID: u.ID, UserName: u.UserName, Email: u.Email}, nil
}
