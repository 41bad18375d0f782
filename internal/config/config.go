package config

type Config interface {
	EnvConfig
	GatewayConfig
	CacheConfig
	IdentityConfig
	RealtimeConfig
}

type EnvConfig interface {
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	Gateway
	Cache
	Identity
	Realtime
}

func New() Config {
	return mainConfig{}
}
