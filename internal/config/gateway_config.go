package config

import "time"

type GatewayConfig interface {
	GetRequestTimeout() time.Duration
	GetDefaultContentType() string
	GetMaxResponseBytes() int64
}

type Gateway struct{}

var _ GatewayConfig = Gateway{}

func (Gateway) GetRequestTimeout() time.Duration {
	return 15 * time.Second
}

func (Gateway) GetDefaultContentType() string {
	return "application/json"
}

func (Gateway) GetMaxResponseBytes() int64 {
	return 10 << 20 // 10MiB
}
