package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// ClientOptionsFromEnv is ClientOptions over the process environment.
func ClientOptionsFromEnv() []option.ClientOption {
	return ClientOptions(os.Getenv)
}

// ClientOptions picks credentials for the storage and speech clients.
// GOOGLE_APPLICATION_CREDENTIALS_JSON holds inline JSON; GOOGLE_APPLICATION_CREDENTIALS holds
// inline JSON or a key file path. Neither set means application default credentials.
func ClientOptions(get func(string) string) []option.ClientOption {
	for _, key := range []string{"GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS"} {
		v := strings.TrimSpace(get(key))
		switch {
		case v == "":
			continue
		case strings.HasPrefix(v, "{"):
			return []option.ClientOption{option.WithCredentialsJSON([]byte(v))}
		default:
			return []option.ClientOption{option.WithCredentialsFile(v)}
		}
	}
	return nil
}
