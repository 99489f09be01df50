package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cardforge/cardforge/internal/config"
	"github.com/cardforge/cardforge/pkg/assets"
	"github.com/cardforge/cardforge/pkg/buildinfo"
	"github.com/cardforge/cardforge/pkg/fonts"
	"github.com/cardforge/cardforge/pkg/render"
	"github.com/cardforge/cardforge/pkg/storage"
)

// appName is the application name used for directories and display.
const appName = "cardforge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config // lazily loaded
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
		Short:        "Cardforge designs, renders, and prints identity cards",
		Long:         `Cardforge is a CLI tool for turning card designs into data-bound templates, rendering them with per-card data, and composing print sheets with optical calibration markers.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")

	root.AddCommand(c.importCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.fieldsCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.sheetCommand())
	root.AddCommand(c.calibrateCommand())
	root.AddCommand(c.markersCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the configuration file once and caches it.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	c.cfg = &cfg
	return cfg, nil
}

// openStore opens the configured template store.
func (c *CLI) openStore(ctx context.Context) (storage.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	c.Logger.Debugf("Opening %s store", cfg.Storage.Backend)
	return storage.Open(ctx, cfg.Storage)
}

// newRenderer builds a renderer with system fonts and an asset cache under
// the config directory. A broken cache directory degrades to uncached
// loading.
func (c *CLI) newRenderer(logger *log.Logger) *render.Renderer {
	cache, err := assets.NewFileCache(filepath.Join(config.Dir(), "cache"))
	if err != nil {
		logger.Debug("asset cache unavailable", "err", err)
		return render.New(fonts.NewSystemResolver(), logger)
	}
	return render.NewWithAssets(fonts.NewSystemResolver(), assets.NewLoader(nil, cache), logger)
}

// openOutput creates the output file, making parent directories as needed.
func openOutput(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}
