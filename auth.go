package dataapi

import (
	"fmt"

	"github.com/gaborage/dataapi-go/auth"
	"github.com/gaborage/dataapi-go/config"
)

// newAuthProvider maps auth.type onto a provider. It returns nil for "none".
func newAuthProvider(cfg config.AuthConfig, o options) (auth.Provider, error) {
	switch cfg.Type {
	case "", config.AuthNone:
		return nil, nil
	case config.AuthAPIKey:
		return auth.NewAPIKey(cfg.APIKey, cfg.Header), nil
	case config.AuthBasic:
		return auth.NewBasic(cfg.Username, cfg.Password), nil
	case config.AuthCustom:
		return auth.NewCustom(cfg.Headers), nil
	case config.AuthBearer, config.AuthOAuth2:
		cred := auth.Credential{AccessToken: cfg.Token, RefreshToken: cfg.RefreshToken}
		switch {
		case cfg.ExpiresIn > 0:
			cred.Expiry = o.now().Add(cfg.ExpiresIn)
		case cfg.Token == "":
			// Already expired, so the first call fetches a token.
			cred.Expiry = o.now()
		}
		bopts := []auth.BearerOption{auth.WithLogger(o.log), auth.WithClock(o.now)}
		if cfg.OAuth2.TokenURL != "" {
			bopts = append(bopts, auth.WithRefresher(&auth.OAuth2Refresher{
				ClientID:     cfg.OAuth2.ClientID,
				ClientSecret: cfg.OAuth2.ClientSecret,
				TokenURL:     cfg.OAuth2.TokenURL,
				Scopes:       cfg.OAuth2.Scopes,
				HTTPClient:   o.httpClient,
			}))
		}
		return auth.NewBearer(cred, bopts...), nil
	default:
		return nil, fmt.Errorf("dataapi: unsupported auth type %q", cfg.Type)
	}
}
