package auth

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/gaborage/dataapi-go/apierror"
)

// OAuth2Refresher refreshes bearer credentials against an OAuth2 token endpoint.
// It uses the refresh_token grant when the current credential carries a refresh
// token and falls back to client_credentials otherwise.
type OAuth2Refresher struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	// HTTPClient is used for token requests; nil selects http.DefaultClient.
	HTTPClient *http.Client
}

// Refresh implements Refresher.
func (r *OAuth2Refresher) Refresh(ctx context.Context, current Credential) (Credential, error) {
	if r.TokenURL == "" {
		return Credential{}, apierror.NewAuthenticationError("oauth2 token URL is not configured", nil)
	}
	if r.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.HTTPClient)
	}

	var (
		tok *oauth2.Token
		err error
	)
	if current.RefreshToken != "" {
		cfg := &oauth2.Config{
			ClientID:     r.ClientID,
			ClientSecret: r.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: r.TokenURL},
			Scopes:       r.Scopes,
		}
		tok, err = cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshToken}).Token()
	} else {
		cc := &clientcredentials.Config{
			ClientID:     r.ClientID,
			ClientSecret: r.ClientSecret,
			TokenURL:     r.TokenURL,
			Scopes:       r.Scopes,
		}
		tok, err = cc.Token(ctx)
	}
	if err != nil {
		return Credential{}, wrapOAuth2Error(err)
	}

	return Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

func wrapOAuth2Error(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		msg := "oauth2 token request rejected"
		if re.ErrorCode != "" {
			msg += ": " + re.ErrorCode
		}
		return apierror.New(apierror.KindAuthentication, msg,
			apierror.WithStatus(re.Response.StatusCode),
			apierror.WithCode(re.ErrorCode),
			apierror.WithBody(re.Body),
			apierror.WithCause(err))
	}
	return apierror.NewAuthenticationError("oauth2 token request failed", err)
}
