package gauth

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Common scope sets
var (
	// ScopesReadWrite covers Drive and Sheets with full access.
	ScopesReadWrite = []string{
		"https://www.googleapis.com/auth/drive",
		"https://www.googleapis.com/auth/spreadsheets",
	}

	// ScopesReadOnly covers read-only Drive and Sheets access.
	ScopesReadOnly = []string{
		"https://www.googleapis.com/auth/drive.readonly",
		"https://www.googleapis.com/auth/spreadsheets.readonly",
	}
)

// CredentialsEnvVar names the environment variable consulted by
// TokenSourceFromEnv, falling back to the standard Google variable.
const CredentialsEnvVar = "GAPIKIT_CREDENTIALS"

const googleCredentialsEnvVar = "GOOGLE_APPLICATION_CREDENTIALS"

// TokenSource builds an oauth2 token source from service-account or
// application-default credentials JSON.
func TokenSource(ctx context.Context, credentialsJSON []byte, scopes ...string) (oauth2.TokenSource, error) {
	if len(scopes) == 0 {
		scopes = ScopesReadWrite
	}

	if cfg, err := google.JWTConfigFromJSON(credentialsJSON, scopes...); err == nil {
		return cfg.TokenSource(ctx), nil
	}

	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return creds.TokenSource, nil
}

// TokenSourceFromFile reads credentials JSON from path.
func TokenSourceFromFile(ctx context.Context, path string, scopes ...string) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return TokenSource(ctx, data, scopes...)
}

// TokenSourceFromEnv reads the credentials path from GAPIKIT_CREDENTIALS
// or GOOGLE_APPLICATION_CREDENTIALS.
func TokenSourceFromEnv(ctx context.Context, scopes ...string) (oauth2.TokenSource, error) {
	path := os.Getenv(CredentialsEnvVar)
	if path == "" {
		path = os.Getenv(googleCredentialsEnvVar)
	}
	if path == "" {
		return nil, fmt.Errorf("neither %s nor %s is set", CredentialsEnvVar, googleCredentialsEnvVar)
	}
	return TokenSourceFromFile(ctx, path, scopes...)
}
