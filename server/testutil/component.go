package testutil

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/s3fm/component"
	"github.com/kbukum/s3fm/logger"
	"github.com/kbukum/s3fm/server"
	"github.com/kbukum/s3fm/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// RouteFunc mounts routes and extra middleware on a fresh server.
type RouteFunc func(srv *server.Server)

// Component runs a server.Server behind an httptest.Server. Routes come
// from a RouteFunc so Reset can rebuild the server from scratch.
type Component struct {
	routes RouteFunc
	log    *logger.Logger

	mu  sync.RWMutex
	srv *server.Server
	ts  *httptest.Server
}

var (
	_ component.Component    = (*Component)(nil)
	_ testutil.TestComponent = (*Component)(nil)
)

// NewComponent creates a test server whose routes are installed by routes.
// A nil routes leaves only the default endpoints.
func NewComponent(routes RouteFunc) *Component {
	return &Component{routes: routes, log: logger.NewNop()}
}

func (c *Component) build() *server.Server {
	srv := server.New(server.Config{Host: "127.0.0.1"}, c.log)
	srv.ApplyMiddleware("server-test", nil)
	srv.RegisterDefaultEndpoints("server-test", nil)
	if c.routes != nil {
		c.routes(srv)
	}
	return srv
}

// Server returns the server currently being served, or nil before Start.
func (c *Component) Server() *server.Server {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.srv
}

// BaseURL is the httptest URL, empty until Start.
func (c *Component) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ts == nil {
		return ""
	}
	return c.ts.URL
}

func (c *Component) Name() string { return "server-test" }

func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts != nil {
		return errors.New("server-test: already started")
	}
	c.srv = c.build()
	c.ts = httptest.NewServer(c.srv.Handler())
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts != nil {
		c.ts.Close()
		c.ts = nil
	}
	return nil
}

func (c *Component) Health(_ context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ts == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Reset replaces the server with a freshly built one on a new URL.
func (c *Component) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts == nil {
		return errors.New("server-test: not started")
	}
	c.ts.Close()
	c.srv = c.build()
	c.ts = httptest.NewServer(c.srv.Handler())
	return nil
}

// Snapshot returns nil; the server holds no state worth capturing.
func (c *Component) Snapshot(_ context.Context) (interface{}, error) {
	return nil, nil
}

// Restore is a no-op.
func (c *Component) Restore(_ context.Context, _ interface{}) error {
	return nil
}
