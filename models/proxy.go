package models

import "fmt"

// ProxyType classifies a proxy record in the external directory
// (proxy_list.proxy_type column).
type ProxyType string

const (
	ProxyDCV6Dedicated        ProxyType = "datacenter_ipv6_dedicated"
	ProxyDCV4Shared           ProxyType = "datacenter_ipv4_shared"
	ProxyDCV4Dedicated        ProxyType = "datacenter_ipv4_dedicated"
	ProxyMobileDedicated      ProxyType = "mobile_dedicated"
	ProxyMobileShared         ProxyType = "mobile_shared"
	ProxyResidentialShared    ProxyType = "residential_shared"
	ProxyResidentialDedicated ProxyType = "residential_dedicated"
)

// Proxy holds connection credentials for one upstream forward proxy.
// Records are read once per run from the directory and never mutated.
type Proxy struct {
	Address  string
	Port     int
	Username string
	Password string
	Type     ProxyType
}

// Key identifies a proxy inside a pool. Sessions are memoized by it.
func (p Proxy) Key() string {
	return fmt.Sprintf("%s:%d", p.Address, p.Port)
}

// URL renders the proxy as an http proxy URL with basic credentials.
func (p Proxy) URL() string {
	if p.Username == "" {
		return fmt.Sprintf("http://%s:%d", p.Address, p.Port)
	}
	return fmt.Sprintf("http://%s:%s@%s:%d", p.Username, p.Password, p.Address, p.Port)
}
