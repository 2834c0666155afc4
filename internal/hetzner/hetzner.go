// Package hetzner lists live servers from the Hetzner Cloud API for drift
// reports.
package hetzner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"allthingslinux/atl/internal/retry"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

var (
	ErrUnauthorized = errors.New("hetzner: unauthorized")
	ErrRateLimited  = errors.New("hetzner: rate limited")
)

// Server is the subset of a Hetzner server that drift reports need.
type Server struct {
	ID         int64
	Name       string
	Status     string
	PublicIPv4 string
	// PublicIPv6Network is the server's routed IPv6 block in CIDR form,
	// e.g. 2001:db8:1:2::/64. Hetzner assigns a /64, not a single address.
	PublicIPv6Network string
	ServerType string
	Location   string
	Labels     map[string]string
	CreatedAt  time.Time
}

// Client wraps an hcloud client.
type Client struct {
	client *hcloud.Client
	retry  retry.Policy
	log    *zap.SugaredLogger
}

// New creates a Client authenticated with token. Extra hcloud options are
// applied after the defaults, so tests can point the client at a fake
// endpoint.
func New(token string, log *zap.SugaredLogger, opts ...hcloud.ClientOption) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	defaults := []hcloud.ClientOption{
		hcloud.WithToken(token),
		hcloud.WithApplication("atl", "0.1.0"),
	}
	c := &Client{
		client: hcloud.NewClient(append(defaults, opts...)...),
		retry:  retry.DefaultPolicy(),
		log:    log,
	}
	c.retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.log.Debugw("retrying hetzner request", "attempt", attempt, "delay", delay, "error", err)
	}
	return c
}

// WithRetry replaces the retry policy and returns c.
func (c *Client) WithRetry(p retry.Policy) *Client {
	onRetry := c.retry.OnRetry
	c.retry = p
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = onRetry
	}
	return c
}

// ListServers returns every server in the project.
func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	hzServers, err := retry.Value(ctx, c.retry, isRetryable, func(ctx context.Context) ([]*hcloud.Server, error) {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return c.client.Server.All(ctx)
	})
	if err != nil {
		if hcloud.IsError(err, hcloud.ErrorCodeUnauthorized) {
			return nil, fmt.Errorf("failed to list servers: %w", ErrUnauthorized)
		}
		if hcloud.IsError(err, hcloud.ErrorCodeRateLimitExceeded) {
			return nil, fmt.Errorf("failed to list servers: %w", ErrRateLimited)
		}
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	servers := make([]Server, 0, len(hzServers))
	for _, s := range hzServers {
		servers = append(servers, toServer(s))
	}
	c.log.Debugw("listed hetzner servers", "count", len(servers))
	return servers, nil
}

func isRetryable(err error) bool {
	if hcloud.IsError(err, hcloud.ErrorCodeRateLimitExceeded) ||
		hcloud.IsError(err, hcloud.ErrorCodeTimeout) ||
		hcloud.IsError(err, hcloud.ErrorCodeServiceError) ||
		hcloud.IsError(err, hcloud.ErrorCodeMaintenance) ||
		hcloud.IsError(err, hcloud.ErrorCodeLocked) {
		return true
	}
	return retry.IsTransient(err)
}

func toServer(s *hcloud.Server) Server {
	server := Server{
		ID:        s.ID,
		Name:      s.Name,
		Status:    string(s.Status),
		Labels:    s.Labels,
		CreatedAt: s.Created,
	}

	if !s.PublicNet.IPv4.IsUnspecified() {
		server.PublicIPv4 = s.PublicNet.IPv4.IP.String()
	}
	if n := s.PublicNet.IPv6.Network; n != nil && !s.PublicNet.IPv6.IsUnspecified() {
		server.PublicIPv6Network = n.String()
	}
	if s.ServerType != nil {
		server.ServerType = s.ServerType.Name
	}
	if s.Location != nil {
		server.Location = s.Location.Name
	}
	return server
}
