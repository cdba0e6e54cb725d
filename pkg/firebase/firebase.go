package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

type Config struct {
	ProjectID       string `yaml:"FIREBASE_PROJECT_ID" env:"FIREBASE_PROJECT_ID"`
	CredentialsFile string `yaml:"FIREBASE_CREDENTIALS_FILE" env:"FIREBASE_CREDENTIALS_FILE"`
	CredentialsJSON string `yaml:"GOOGLE_CREDENTIALS" env:"GOOGLE_CREDENTIALS"`
	APIKey          string `yaml:"FIREBASE_API_KEY" env:"FIREBASE_API_KEY"`
}

// ClientOptions returns the credential options configured for Google APIs.
func (c Config) ClientOptions() []option.ClientOption {
	switch {
	case c.CredentialsJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(c.CredentialsJSON))}
	case c.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(c.CredentialsFile)}
	}
	return nil
}

func New(ctx context.Context, config Config) (*firebase.App, error) {
	var fbConfig *firebase.Config
	if config.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: config.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, config.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("firebase: failed to initialize app: %w", err)
	}
	return app, nil
}
