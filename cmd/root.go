package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/zjrosen/quill/internal/config"
	"github.com/zjrosen/quill/internal/editor"
	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/syntax"
	"github.com/zjrosen/quill/internal/watcher"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
	// configErr holds a config loading failure until a command can return
	// it; cobra's OnInitialize hooks cannot fail themselves.
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "quill [file]",
	Short: "A small terminal text editor",
	Long: `A small terminal text editor with syntax highlighting, incremental
search and live-reloaded language definitions.

Opening a file that does not exist starts an empty buffer; the file is
created on the first save.`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runEditor,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/quill/config.yaml)")
	rootCmd.Flags().String("log-file", "",
		"append structured logs to this file")
	rootCmd.Flags().String("log-level", "",
		"minimum log level: debug, info, warn or error")

	// Bind flags to viper
	_ = viper.BindPFlag("log_file", rootCmd.Flags().Lookup("log-file"))
	_ = viper.BindPFlag("log_level", rootCmd.Flags().Lookup("log-level"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("tab_stop", defaults.TabStop)
	viper.SetDefault("quit_times", defaults.QuitTimes)
	viper.SetDefault("message_duration", defaults.MessageDuration)
	viper.SetDefault("show_line_numbers", defaults.ShowLineNumbers)
	viper.SetDefault("log_level", defaults.LogLevel)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. ~/.config/quill/config.yaml (user config)
		// 2. /etc/quill/config.yaml (system-wide)
		if dir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(filepath.Join(dir, "quill"))
		}
		viper.AddConfigPath("/etc/quill")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	configErr = nil
	if err := viper.ReadInConfig(); err != nil {
		// Running without any config file is the normal case. An explicit
		// --config that cannot be read, or a file with broken YAML, must
		// stop the editor before it takes over the terminal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configErr = fmt.Errorf("reading config: %w", err)
			return
		}
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		configErr = fmt.Errorf("parsing config: %w", err)
	}
}

func runEditor(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		return configErr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("standard input and output must be a terminal")
	}

	if cfg.LogFile != "" {
		cleanup, err := log.Init(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer cleanup()
		log.SetMinLevel(log.ParseLevel(cfg.LogLevel))
		log.Info(log.CatConfig, "Configuration loaded",
			"file", viper.ConfigFileUsed(), "log_level", cfg.LogLevel)
	}

	registry := syntax.NewRegistry(cfg.EffectiveSyntaxDirs())

	// Definition files changing on disk re-highlight open buffers live. The
	// watcher is best effort: the editor works fine without it.
	var syntaxChanged <-chan struct{}
	if w, err := watcher.New(watcher.DefaultConfig(cfg.EffectiveSyntaxDirs())); err != nil {
		log.ErrorErr(log.CatWatcher, "Creating syntax watcher", err)
	} else if ch, startErr := w.Start(); startErr != nil {
		log.ErrorErr(log.CatWatcher, "Starting syntax watcher", startErr)
		_ = w.Stop()
	} else {
		syntaxChanged = ch
		defer func() { _ = w.Stop() }()
	}

	ed, err := editor.New(editor.Options{
		Config:        cfg,
		Registry:      registry,
		SyntaxChanged: syntaxChanged,
		Version:       version,
	})
	if err != nil {
		return err
	}
	defer func() { _ = ed.Close() }()

	fileName := ""
	if len(args) == 1 {
		fileName = args[0]
	}
	return ed.Run(fileName)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
