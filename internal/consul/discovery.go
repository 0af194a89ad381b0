package consul

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"os"
	"strconv"
	"strings"
)

// ErrNoInstances is returned when a service has no healthy instance.
var ErrNoInstances = errors.New("no healthy instances")

// ServiceInstance represents a discovered service instance
type ServiceInstance struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
}

// BaseURL is the http root of the instance.
func (i *ServiceInstance) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", i.Address, i.Port)
}

// ServiceDiscovery defines the interface for service discovery
type ServiceDiscovery interface {
	Discover(serviceName string) ([]*ServiceInstance, error)
	DiscoverOne(serviceName string) (*ServiceInstance, error)
}

// Discover retrieves all healthy instances of a service
func (c *Client) Discover(serviceName string) ([]*ServiceInstance, error) {
	entries, _, err := c.api.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", serviceName, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", serviceName, ErrNoInstances)
	}

	instances := make([]*ServiceInstance, 0, len(entries))
	for _, entry := range entries {
		instance := &ServiceInstance{
			ID:      entry.Service.ID,
			Name:    entry.Service.Service,
			Address: entry.Service.Address,
			Port:    entry.Service.Port,
			Tags:    entry.Service.Tags,
		}
		// Use node address if service address is empty
		if instance.Address == "" {
			instance.Address = entry.Node.Address
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// DiscoverOne retrieves a single healthy instance using random load balancing
func (c *Client) DiscoverOne(serviceName string) (*ServiceInstance, error) {
	return pickOne(c, serviceName)
}

// Static resolves services from a fixed table. It backs local runs without
// a Consul agent and the gateway tests.
type Static map[string][]*ServiceInstance

func (s Static) Discover(serviceName string) ([]*ServiceInstance, error) {
	instances := s[serviceName]
	if len(instances) == 0 {
		return nil, fmt.Errorf("%s: %w", serviceName, ErrNoInstances)
	}
	return instances, nil
}

func (s Static) DiscoverOne(serviceName string) (*ServiceInstance, error) {
	return pickOne(s, serviceName)
}

// StaticFromEnv builds a table from UPSTREAM_<NAME>=host:port variables, where
// <NAME> is the service name upper-cased with dashes as underscores.
// Services without a variable are left out.
func StaticFromEnv(serviceNames ...string) (Static, error) {
	s := Static{}
	for _, name := range serviceNames {
		key := "UPSTREAM_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		addr := os.Getenv(key)
		if addr == "" {
			continue
		}
		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid port %q", key, portStr)
		}
		s[name] = []*ServiceInstance{{ID: name + "-static", Name: name, Address: host, Port: port}}
	}
	return s, nil
}

func pickOne(d ServiceDiscovery, serviceName string) (*ServiceInstance, error) {
	instances, err := d.Discover(serviceName)
	if err != nil {
		return nil, err
	}
	return instances[rand.IntN(len(instances))], nil
}
