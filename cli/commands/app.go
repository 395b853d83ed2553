// Package commands implements the warehouse CLI using Cobra.
package commands

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/warehouse/config"
	"github.com/petal-labs/warehouse/providers/anthropic"
	"github.com/petal-labs/warehouse/providers/openai"
)

// ConfigLoader loads configuration from a path.
type ConfigLoader func(path string) (*config.Config, error)

// ServeFunc runs the collector until ctx is canceled.
type ServeFunc func(ctx context.Context, cfg config.CollectorConfig, logger *slog.Logger) error

// OpenAIFactory creates the OpenAI client used by chat.
type OpenAIFactory func() (*openai.Client, error)

// AnthropicFactory creates the Anthropic client used by chat for model.
type AnthropicFactory func(model string) (*anthropic.Client, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig   ConfigLoader
	serve        ServeFunc
	newOpenAI    OpenAIFactory
	newAnthropic AnthropicFactory
	httpClient   *http.Client
	isTerminal   func(w io.Writer) bool
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
	cfgFile      string
	jsonOutput   bool
	verbose      bool
	cfg          *config.Config
	logger       *slog.Logger

	serveAddr    string
	serveDataDir string

	collectorURL  string
	recordsMethod string
	recordsOut    string
	recordsLimit  int

	chatProvider  string
	chatModel     string
	chatPrompt    string
	chatSystem    string
	chatMaxTokens int
	chatStream    bool
	chatAsync     bool
	chatShow      bool
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithServeFunc injects the collector runner.
func WithServeFunc(fn ServeFunc) AppOption {
	return func(a *App) {
		if fn != nil {
			a.serve = fn
		}
	}
}

// WithOpenAIFactory injects the OpenAI client factory.
func WithOpenAIFactory(f OpenAIFactory) AppOption {
	return func(a *App) {
		if f != nil {
			a.newOpenAI = f
		}
	}
}

// WithAnthropicFactory injects the Anthropic client factory.
func WithAnthropicFactory(f AnthropicFactory) AppOption {
	return func(a *App) {
		if f != nil {
			a.newAnthropic = f
		}
	}
}

// WithHTTPClient injects the client used to query the collector.
func WithHTTPClient(c *http.Client) AppOption {
	return func(a *App) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithTerminalCheck overrides TTY detection for output formatting.
func WithTerminalCheck(fn func(w io.Writer) bool) AppOption {
	return func(a *App) {
		if fn != nil {
			a.isTerminal = fn
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:   loadConfig,
		serve:        defaultServe,
		newOpenAI:    defaultOpenAI,
		newAnthropic: defaultAnthropic,
		httpClient:   http.DefaultClient,
		isTerminal:   isTerminal,
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func defaultOpenAI() (*openai.Client, error) {
	return openai.NewFromEnv()
}

func defaultAnthropic(model string) (*anthropic.Client, error) {
	return anthropic.NewFromEnv(anthropic.WithModelName(model))
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "warehouse",
		Short: "warehouse - record every LLM SDK call",
		Long: `warehouse records the calls a program makes through LLM client SDKs
and ships them to a collector.

Use warehouse to run the collector, inspect recorded calls, and try the
instrumentation with a live chat request.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $LLM_WAREHOUSE_CONFIG or ~/.llm-warehouse/config.yaml)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newServeCommand())
	root.AddCommand(a.newRecordsCommand())
	root.AddCommand(a.newStatsCommand())
	root.AddCommand(a.newCatalogCommand())
	root.AddCommand(a.newChatCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// SetArgs sets the arguments used by Execute. It exists for tests.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.root.Execute()
}

func (a *App) initConfig() error {
	path := a.cfgFile
	if path == "" {
		path = os.Getenv("LLM_WAREHOUSE_CONFIG")
	}
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		a.reportError(a.stderr, "config_error", err)
		return exitWithCode(ExitValidation, err)
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if a.verbose || cfg.Debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

var defaultApp = NewApp()

// Execute runs the default app root command.
func Execute() error {
	return defaultApp.Execute()
}
