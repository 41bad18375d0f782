package config

import "time"

type RealtimeConfig interface {
	GetSocketURL() string
	GetReconnectAttempts() int
	GetReconnectDelay() time.Duration
}

type Realtime struct{}

var _ RealtimeConfig = Realtime{}

func (Realtime) GetSocketURL() string {
	return GetEnv("SOCKET_URL", "wss://shopnish-seprate.onrender.com/ws")
}

func (Realtime) GetReconnectAttempts() int {
	return 5
}

func (Realtime) GetReconnectDelay() time.Duration {
	return 5 * time.Second
}
