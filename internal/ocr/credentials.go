package ocr

import (
	"os"

	"google.golang.org/api/option"
)

// HasGoogleCredentials reports whether explicit Google credentials are configured.
func HasGoogleCredentials() bool {
	return os.Getenv("GOOGLE_CREDENTIALS") != "" || os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
}

// credentialOptions returns the client option for the configured credentials.
// Inline credentials win over a credentials file; nil means application
// default credentials.
func credentialOptions() []option.ClientOption {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}
