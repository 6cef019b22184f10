// Package cli implements the graphengine command-line interface.
package cli

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphengine/internal/api"
	"github.com/matzehuels/graphengine/internal/jobrunner"
	"github.com/matzehuels/graphengine/internal/registry"
	"github.com/matzehuels/graphengine/pkg/authn"
	"github.com/matzehuels/graphengine/pkg/buildinfo"
	"github.com/matzehuels/graphengine/pkg/cache"
	"github.com/matzehuels/graphengine/pkg/dbauth"
	"github.com/matzehuels/graphengine/pkg/dbclient"
	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/metrics"
	"github.com/matzehuels/graphengine/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "graphengine"

	// defaultBindPort is the port serve listens on when --bind-port is unset.
	defaultBindPort = 8080

	// dbAuthTTL bounds how long a re-signed outbound database JWT is reused.
	dbAuthTTL = cache.TTLDBAuth
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Graphengine runs the in-memory graph analytics server",
		Long:         "Graphengine is a single-process, RAM-resident graph analytics server: it loads a directed graph from a document database, runs graph algorithms over it, and writes results back.",
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.AddCommand(c.serveCommand())
	return root
}

// =============================================================================
// serve
// =============================================================================

// serveOptions collects the serve command's flags, per spec §6.4.
type serveOptions struct {
	bindPort           int
	arangoEndpoints    string
	arangoJWTSecretDir string
	authService        string
	jobPoolSize        int
	noDescriptorCache  bool
}

func (c *CLI) serveCommand() *cobra.Command {
	opts := &serveOptions{bindPort: defaultBindPort}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/JSON API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.bindPort, "bind-port", opts.bindPort, "port the HTTP API listens on")
	flags.StringVar(&opts.arangoEndpoints, "arangodb-endpoints", "", "comma-separated document database endpoints")
	flags.StringVar(&opts.arangoJWTSecretDir, "arangodb-jwt-secrets", "", "directory holding the document database's JWT secret")
	flags.StringVar(&opts.authService, "auth-service", "", "auth service endpoint validating bearer tokens (optional; defaults to accepting any bearer token)")
	flags.IntVar(&opts.jobPoolSize, "job-pool-size", 0, "concurrent job-runner workers (0 = number of CPUs)")
	flags.BoolVar(&opts.noDescriptorCache, "no-descriptor-cache", false, "disable the on-disk named-graph descriptor cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOptions) error {
	ctx = withLogger(ctx, c.Logger)
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	endpoints := splitNonEmpty(opts.arangoEndpoints)
	if len(endpoints) == 0 {
		return errors.New(errors.CodeInvalidInput, "--arangodb-endpoints is required")
	}

	secret, err := loadJWTSecret(opts.arangoJWTSecretDir)
	if err != nil {
		return err
	}

	descriptorCache, err := newCache(opts.noDescriptorCache)
	if err != nil {
		return err
	}

	observability.SetJobHooks(metrics.JobHooks())
	observability.SetRegistryHooks(metrics.RegistryHooks())
	observability.SetHTTPHooks(metrics.HTTPHooks())

	reg := registry.New()
	runner := jobrunner.New(opts.jobPoolSize)
	signer := dbauth.NewSigner(secret, dbAuthTTL, cache.NewNullCache())

	var authenticator api.Authenticator
	if opts.authService != "" {
		authenticator = authn.NewServiceAuthenticator(opts.authService)
	} else {
		logger.Warn("no --auth-service configured; accepting any non-empty bearer token")
		authenticator = authn.StaticAuthenticator{}
	}

	dbFactory := func(ctx context.Context, database string) (dbclient.Client, error) {
		return dbclient.Dial(ctx, endpoints[0], database)
	}

	server := api.New(reg, runner, authenticator, signer, dbFactory, nil, descriptorCache, logger)
	handler := api.NewRouter(server)

	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(opts.bindPort),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	p.done("graphengine listening on " + httpServer.Addr)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining in-flight jobs")
		server.RequestShutdown(context.Background())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.CodeInternal, err, "http server")
		}
		return nil
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// loadJWTSecret reads the document database's shared JWT secret from the
// first file in dir, matching ArangoDB's multi-secret rotation directory
// convention (only the first is used for signing; all would be accepted
// for verification, but this engine only signs outbound requests).
func loadJWTSecret(dir string) ([]byte, error) {
	if dir == "" {
		return nil, errors.New(errors.CodeInvalidInput, "--arangodb-jwt-secrets is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidInput, err, "read --arangodb-jwt-secrets directory")
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Wrap(errors.CodeInvalidInput, err, "read JWT secret file %q", entry.Name())
		}
		return []byte(strings.TrimSpace(string(data))), nil
	}
	return nil, errors.New(errors.CodeInvalidInput, "--arangodb-jwt-secrets directory %q contains no secret file", dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using the XDG standard (~/.cache/graphengine/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// newCache creates the descriptor cache: a no-op cache if disabled, else
// an on-disk file cache under cacheDir.
func newCache(disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
