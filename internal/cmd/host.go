package cmd

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/kovyrin/pdfish/internal/config"
	"github.com/kovyrin/pdfish/internal/git"
	"github.com/kovyrin/pdfish/internal/logging"
	"github.com/kovyrin/pdfish/internal/resource"
	"github.com/kovyrin/pdfish/internal/security"
	"github.com/kovyrin/pdfish/internal/workflow"
)

// host is the process-lifetime wiring: the logger and the ingestor holding
// the last ingested path.
type host struct {
	logger   *zap.Logger
	ingestor *workflow.Ingestor
}

// newHost loads configuration, applies flag overrides and wires the
// ingestion workflow. stdin backs the "-" resource URI; a nil stdin leaves
// "-" unopenable.
func newHost(stdin io.Reader) (*host, error) {
	dir := configDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = wd
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if cacheDir != "" {
		cfg.CacheDir = config.ExpandHome(cacheDir)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if offline {
		cfg.Git.Offline = true
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	// The cache directory belongs to the host; the materializer only writes into it.
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	grants := security.NewGrants(cfg.Grants...)

	gitOpts := []git.Option{
		git.WithReposDir(cfg.Git.ReposDir),
		git.WithGrants(grants),
		git.WithLogger(logger.Named("git")),
	}
	if cfg.Git.Offline {
		gitOpts = append(gitOpts, git.WithOfflineMode())
	}

	files := resource.NewFileProvider(grants)
	resolver := resource.NewResolver()
	resolver.RegisterDefault(files)
	resolver.Register("file", files)
	resolver.Register(git.Scheme, git.NewProvider(gitOpts...))
	resolver.RegisterURI("-", resource.NewStreamProvider(stdin))

	ingestor, err := workflow.New(workflow.IngestOptions{
		CacheDir:       cfg.CacheDir,
		BufferSize:     cfg.BufferSize,
		FallbackPrefix: cfg.Fallback.Prefix,
		FallbackSuffix: cfg.Fallback.Suffix,
		Resolver:       resolver,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestor: %w", err)
	}

	return &host{logger: logger, ingestor: ingestor}, nil
}

func (h *host) close() {
	_ = h.logger.Sync()
}
