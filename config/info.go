package config

import (
	"sync"
)

const (
	ServiceName    = "wallet-core"
	ServiceVersion = "0.0.1"
)

var (
	si   *serviceInfo
	once sync.Once
)

// getServiceInfo provides serviceInfo as a singleton
func getServiceInfo() *serviceInfo {
	once.Do(func() {
		si = &serviceInfo{
			name: ServiceName,
			description: "The wallet core service normalizes verifiable credentials, computes selective" +
				" disclosures, validates issuer trust, resolves credential status, and coordinates" +
				" acceptance of incoming credential offers.",
			version: ServiceVersion,
		}
	})

	return si
}

// serviceInfo is intended to be a (mostly) read-only singleton object for static service info
type serviceInfo struct {
	name        string
	description string
	version     string
}

func Name() string {
	return getServiceInfo().name
}

func Description() string {
	return getServiceInfo().description
}

func Version() string {
	return getServiceInfo().version
}
