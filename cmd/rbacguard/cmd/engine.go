package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sentinelgate/rbacguard/internal/adapter/fileadapter"
	"github.com/sentinelgate/rbacguard/internal/adapter/memstore"
	"github.com/sentinelgate/rbacguard/internal/config"
	"github.com/sentinelgate/rbacguard/internal/model"
	"github.com/sentinelgate/rbacguard/internal/rbacguard"
)

// newLogger builds the CLI's structured logger, writing to stderr so stdout
// stays reserved for command output (e.g. "check"'s allow/deny line).
func newLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.Log.Level)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadModel resolves the model definition from config, preferring Inline
// over Path when both are set.
func loadModel(cfg *config.Config, logger *slog.Logger) (*model.Model, error) {
	if cfg.Model.Inline != "" {
		return model.Parse(cfg.Model.Inline, logger)
	}
	return model.LoadFile(cfg.Model.Path, logger)
}

// newPolicyAdapter resolves the configured policy source into a
// rbacguard.PolicyAdapter. For the file source with checksumming enabled, it
// verifies the on-disk policy against its recorded checksum before the
// adapter is ever handed to rbacguard.Build, or lays down a first checksum if
// none has been recorded yet.
func newPolicyAdapter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (rbacguard.PolicyAdapter, error) {
	switch cfg.Policy.Source {
	case "file":
		adapter := fileadapter.New(cfg.Policy.FilePath, fileadapter.WithLogger(logger))
		if cfg.Policy.ChecksumEnabled {
			if err := verifyOrBootstrapChecksum(ctx, adapter, logger); err != nil {
				return nil, err
			}
		}
		return adapter, nil
	case "memory":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unsupported policy source %q", cfg.Policy.Source)
	}
}

// verifyOrBootstrapChecksum records a baseline checksum for a policy file
// seen for the first time, or verifies the file against a checksum recorded
// on a previous run, rejecting the load if the file was edited out-of-band
// since then.
func verifyOrBootstrapChecksum(ctx context.Context, adapter *fileadapter.Adapter, logger *slog.Logger) error {
	if _, err := os.Stat(adapter.ChecksumPath()); os.IsNotExist(err) {
		logger.Info("rbacguard: no policy checksum on record, writing baseline", "checksum_path", adapter.ChecksumPath())
		return adapter.WriteChecksum(ctx)
	}

	ok, err := adapter.VerifyChecksum(ctx)
	if err != nil {
		return fmt.Errorf("verifying policy checksum: %w", err)
	}
	if !ok {
		return fmt.Errorf("policy file failed checksum verification against %s: contents changed since last checksum", adapter.ChecksumPath())
	}
	return nil
}

// buildEngine loads config, model, and policy, then builds a rbacguard.Engine
// registered under cfg.Instance.
func buildEngine(ctx context.Context, reg *rbacguard.Registry) (*rbacguard.Engine, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	m, err := loadModel(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("loading model: %w", err)
	}

	adapter, err := newPolicyAdapter(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving policy adapter: %w", err)
	}

	engine, err := rbacguard.Build(ctx, m, adapter,
		rbacguard.WithLogger(logger),
		rbacguard.WithCacheSize(cfg.CacheSize),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("building engine: %w", err)
	}

	reg.Register(cfg.Instance, engine)
	return engine, cfg, nil
}
