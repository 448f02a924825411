package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/config"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/observability"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/registry/server"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	host := cfg.Network.RegistryHost
	port := cfg.Network.RegistryPort
	if opts.Host != "" {
		host = opts.Host
	}
	if opts.Port != 0 {
		port = opts.Port
	}

	zap.L().Info("eigen-registry started", zap.String("app", cfg.AppName))
	zap.L().Info("effective configuration", zap.Any("config", cfg))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	// a bind failure is fatal to startup and exits non-zero
	if err := server.Main(server.Options{Host: host, Port: port}, sig); err != nil {
		zap.L().Error("registry failed", zap.Error(err))
		return 1
	}
	return 0
}
