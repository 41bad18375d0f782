package config

import (
	"os"
	"strings"
)

const (
	appNameVar  = "APP_NAME"
	baseURLVar  = "BASE_URL"
	envVar      = "ENV"
	logLevelVar = "LOG_LEVEL"

	defaultBaseURL = "https://shopnish-seprate.onrender.com"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Seller")
}

// GetBaseURL returns the backend origin every gateway path is resolved against.
// A trailing slash is dropped so paths can always start with "/".
func (EnvVars) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, defaultBaseURL), "/")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(envVar)
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
