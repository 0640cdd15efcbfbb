// Command gt06-server accepts GT06 device connections, frames and decodes
// their telemetry, and keeps the online-device registry that local tools
// reach through the admin socket (pkg/adminsock) and the Redis command
// queue.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fleetwire/gt06-gateway/pkg/adminsock"
	"github.com/fleetwire/gt06-gateway/pkg/config"
	"github.com/fleetwire/gt06-gateway/pkg/eventlog"
	"github.com/fleetwire/gt06-gateway/pkg/metrics"
	gt06redis "github.com/fleetwire/gt06-gateway/pkg/redis"
	"github.com/fleetwire/gt06-gateway/pkg/session"
)

// drainDeadline bounds how long graceful shutdown waits for sessions to
// drain before exiting anyway.
const drainDeadline = 30 * time.Second

func main() {
	cfg := config.Parse()

	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := eventlog.New(base)

	redisClient, err := gt06redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		base.WithError(err).Warn("event bus unavailable, continuing with local logging only")
	} else {
		defer redisClient.Close()
		log.AttachBus(redisClient)
		base.Infof("connected to event bus at %s", cfg.RedisAddr)
	}

	collector := metrics.New()
	registry := session.NewRegistry(log)

	if sock, err := adminsock.Listen(cfg.AdminSocket, registry); err != nil {
		base.WithError(err).Warn("admin feed unavailable")
	} else {
		defer sock.Close()
		go sock.Serve()
		base.Infof("admin feed listening on %s", cfg.AdminSocket)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.ListenPort))
	if err != nil {
		base.WithError(err).Fatal("failed to bind device listen port")
	}
	base.Infof("listening for devices on :%d", cfg.ListenPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Sessions run under their own context so that shutdown can stop
	// accepting without closing the connections that are still open.
	sessCtx, closeSessions := context.WithCancel(context.Background())
	defer closeSessions()

	go acceptLoop(ctx, sessCtx, ln, registry, log, collector)
	if redisClient != nil {
		go registry.WatchCommandQueue(ctx, redisClient)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	base.Info("shutting down: closing listener and draining sessions")
	ln.Close()
	cancel()
	waitForDrain(registry, drainDeadline)
	base.Info("shutdown complete")
}

func acceptLoop(ctx, sessCtx context.Context, ln net.Listener, registry *session.Registry, log *eventlog.Logger, collector *metrics.Collector) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Warn(eventlog.StructuralError, eventlog.Fields{"reason": "accept_error", "error": err.Error()})
				continue
			}
		}
		s := session.New(conn, registry, log, collector)
		go s.Run(sessCtx)
	}
}

// waitForDrain polls the registry until it is empty or deadline elapses.
func waitForDrain(registry *session.Registry, deadline time.Duration) {
	timeout := time.After(deadline)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		if registry.Count() == 0 {
			return
		}
		select {
		case <-timeout:
			return
		case <-ticker.C:
		}
	}
}
