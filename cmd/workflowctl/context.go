package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"jobmate/workflow-service/internal/backend"
	"jobmate/workflow-service/internal/cache"
	"jobmate/workflow-service/internal/config"
	"jobmate/workflow-service/internal/engine"
	"jobmate/workflow-service/internal/grpcserver"
)

const (
	transportHTTP = "http"
	transportGRPC = "grpc"
)

type rootFlags struct {
	server    string
	transport string
	grpcAddr  string
	yes       bool
}

type commandContext struct {
	flags *rootFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	conn *grpc.ClientConn
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.LoadClient(context.Background())
		if err != nil {
			c.configErr = err
			return
		}
		if server := strings.TrimSpace(c.flags.server); server != "" {
			cfg.ServerURL = server
		}
		if addr := strings.TrimSpace(c.flags.grpcAddr); addr != "" {
			cfg.GRPCAddr = addr
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) backend() (engine.Backend, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(c.flags.transport)) {
	case "", transportHTTP:
		return backend.NewClient(cfg.ServerURL, &http.Client{Timeout: cfg.RequestTimeout}), nil
	case transportGRPC:
		if c.conn == nil {
			conn, err := grpc.NewClient(dialTarget(cfg.GRPCAddr),
				grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return nil, fmt.Errorf("dial workflow grpc: %w", err)
			}
			c.conn = conn
		}
		return grpcserver.NewClient(c.conn), nil
	default:
		return nil, fmt.Errorf("unknown transport %q (want http or grpc)", c.flags.transport)
	}
}

// coordinator builds a coordinator for one command invocation. The board
// starts empty; commands load what they need.
func (c *commandContext) coordinator(cmd *cobra.Command) (*engine.Coordinator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	be, err := c.backend()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	rc := cache.New([]cache.Class{
		cache.AnalyticsClass(cfg.AnalyticsTTL),
		cache.CatalogClass(cfg.CatalogTTL),
	})
	return engine.NewCoordinator(be,
		engine.WithCache(rc),
		engine.WithConfirmer(newPromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout(), c.flags.yes)),
		engine.WithLogger(logger),
	), nil
}

func (c *commandContext) close() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// dialTarget turns a listen address such as ":9083" into a dialable one.
func dialTarget(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
