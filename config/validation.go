package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gaborage/dataapi-go/validation"
)

// Validate checks struct rules, then the settings each auth type needs.
// Every problem found is reported, joined with errors.Join.
func Validate(cfg *Config) error {
	var errs []error

	if err := validation.Default().Engine().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("config could not be validated: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fieldError(fe))
		}
	}

	errs = append(errs, validateAuth(&cfg.Auth)...)

	if cfg.Observability.Enabled && cfg.Observability.Endpoint == "" {
		errs = append(errs, NewMissingFieldError("observability.endpoint"))
	}

	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) *ConfigError {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value %q", fmt.Sprint(fe.Value())), strings.Fields(fe.Param()))
	case "url":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid url %q", fmt.Sprint(fe.Value())), nil)
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param()), nil)
	}
}

func validateAuth(cfg *AuthConfig) []error {
	var errs []error
	switch cfg.Type {
	case AuthBearer:
		if cfg.Token == "" {
			errs = append(errs, NewMissingFieldError("auth.token"))
		}
	case AuthAPIKey:
		if cfg.APIKey == "" {
			errs = append(errs, NewMissingFieldError("auth.apikey"))
		}
	case AuthBasic:
		if cfg.Username == "" {
			errs = append(errs, NewMissingFieldError("auth.username"))
		}
		if cfg.Password == "" {
			errs = append(errs, NewMissingFieldError("auth.password"))
		}
	case AuthOAuth2:
		if cfg.OAuth2.TokenURL == "" {
			errs = append(errs, NewMissingFieldError("auth.oauth2.tokenurl"))
		}
		if cfg.OAuth2.ClientID == "" {
			errs = append(errs, NewMissingFieldError("auth.oauth2.clientid"))
		}
	case AuthCustom:
		if len(cfg.Headers) == 0 {
			errs = append(errs, NewMissingFieldError("auth.headers"))
		}
	}
	return errs
}
