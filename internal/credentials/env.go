// Package credentials resolves per-user provider credentials from the
// environment and local token files.
package credentials

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"

	"calbridge/internal/google"
	"calbridge/internal/model"
	"calbridge/internal/provider"
)

// Env resolves credentials the way the CLI expects them to be provisioned:
// Google tokens come from the token files written by the auth command, Apple
// and Microsoft come from environment variables (loaded from .env by main).
type Env struct{}

func NewEnv() *Env {
	return &Env{}
}

func (e *Env) Get(ctx context.Context, userID string, p model.Provider) (provider.Credentials, error) {
	switch p {
	case model.ProviderGoogle:
		tokenFile := "token-" + userID + ".json"
		token, err := google.TokenFromFile(tokenFile)
		if err != nil {
			return provider.Credentials{}, &provider.AuthError{
				UserID:   userID,
				Provider: p,
				Err:      fmt.Errorf("reading %s (run the auth command first): %w", tokenFile, err),
			}
		}
		return provider.Credentials{Token: token}, nil

	case model.ProviderApple:
		username := os.Getenv("ICLOUD_USERNAME")
		password := os.Getenv("ICLOUD_APP_SPECIFIC_PASSWORD")
		if username == "" || password == "" {
			return provider.Credentials{}, &provider.AuthError{
				UserID:   userID,
				Provider: p,
				Err:      fmt.Errorf("ICLOUD_USERNAME and ICLOUD_APP_SPECIFIC_PASSWORD must be set"),
			}
		}
		return provider.Credentials{Username: username, Password: password}, nil

	case model.ProviderMicrosoft:
		accessToken := os.Getenv("MICROSOFT_ACCESS_TOKEN")
		if accessToken == "" {
			return provider.Credentials{}, &provider.AuthError{
				UserID:   userID,
				Provider: p,
				Err:      fmt.Errorf("MICROSOFT_ACCESS_TOKEN must be set"),
			}
		}
		return provider.Credentials{Token: bearerToken(accessToken)}, nil
	}

	return provider.Credentials{}, &provider.AuthError{
		UserID:   userID,
		Provider: p,
		Err:      fmt.Errorf("unknown provider %q", p),
	}
}

func bearerToken(accessToken string) *oauth2.Token {
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
}
