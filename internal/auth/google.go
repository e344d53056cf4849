package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucasvital/todocomplete/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var ErrEmailNotVerified = errors.New("google account e-mail is not verified")

// Google signs users in with their Google account.
type Google struct {
	cfg *oauth2.Config
}

func NewGoogle(c config.GoogleConfig) *Google {
	return &Google{cfg: &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{googleoauth.UserinfoEmailScope, googleoauth.UserinfoProfileScope},
	}}
}

// AuthCodeURL is where the browser is sent to consent.
func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Email exchanges an authorization code and returns the verified e-mail of
// the account that granted it.
func (g *Google) Email(ctx context.Context, code string) (string, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	svc, err := googleoauth.NewService(ctx, option.WithHTTPClient(g.cfg.Client(ctx, tok)))
	if err != nil {
		return "", fmt.Errorf("oauth2 service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("userinfo: %w", err)
	}
	if info.VerifiedEmail == nil || !*info.VerifiedEmail {
		return "", ErrEmailNotVerified
	}
	return info.Email, nil
}
