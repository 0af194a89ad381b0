// Package consul provides service registration and discovery using HashiCorp Consul.
// Every photofeed service registers itself here; the gateway resolves upstreams through it.
package consul

import (
	"os"

	consulapi "github.com/hashicorp/consul/api"
)

// Client wraps the Consul API client
type Client struct {
	api *consulapi.Client
}

// NewClientWithToken creates a new Consul client with ACL token authentication
func NewClientWithToken(addr, token string) (*Client, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = addr
	if token != "" {
		cfg.Token = token
	}

	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{api: client}, nil
}

// NewFromEnv reads CONSUL_HTTP_ADDR (default localhost:8500) and CONSUL_HTTP_TOKEN.
func NewFromEnv() (*Client, error) {
	addr := os.Getenv("CONSUL_HTTP_ADDR")
	if addr == "" {
		addr = "localhost:8500"
	}
	return NewClientWithToken(addr, os.Getenv("CONSUL_HTTP_TOKEN"))
}
