// -----------------------------------------------------------------------
// Last Modified: Friday, 8th November 2025 4:00:00 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/sitecorpus/internal/app"
	"github.com/ternarybob/sitecorpus/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

// main wires configuration, logging, storage, the search store and the
// Job Engine / Query Facade, then dispatches to a subcommand. There is no
// HTTP server: the module is callable as a library through app.App, and
// this binary is a thin CLI over the same four Job Engine operations and
// five Query Facade operations a host application would call directly.
func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("sitecorpus version %s\n", common.GetVersion())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	var err error
	if len(configFiles) == 0 {
		if _, err := os.Stat("sitecorpus.toml"); err == nil {
			configFiles = append(configFiles, "sitecorpus.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		if len(configFiles) == 0 {
			tempLogger.Fatal().Err(err).Msg("Failed to load configuration: no config file found")
		} else {
			tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		}
		os.Exit(1)
	}

	logger = arbor.NewLogger()

	execPath, err := os.Executable()
	if err != nil {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeConsole,
			TimeFormat: "15:04:05",
			TextOutput: true,
		})
		logger.Warn().Err(err).Msg("Failed to get executable path - using fallback console logging")
	} else {
		execDir := filepath.Dir(execPath)
		logsDir := filepath.Join(execDir, "logs")

		hasFileOutput := false
		hasStdoutOutput := false
		for _, output := range config.Logging.Output {
			if output == "file" {
				hasFileOutput = true
			}
			if output == "stdout" || output == "console" {
				hasStdoutOutput = true
			}
		}

		if hasFileOutput {
			if err := os.MkdirAll(logsDir, 0755); err != nil {
				logger.WithConsoleWriter(models.WriterConfiguration{
					Type:       models.LogWriterTypeConsole,
					TimeFormat: "15:04:05",
					TextOutput: true,
				}).Warn().Err(err).Str("logs_dir", logsDir).Msg("Failed to create logs directory")
			} else {
				logFile := filepath.Join(logsDir, "sitecorpus.log")
				logger = logger.WithFileWriter(models.WriterConfiguration{
					Type:       models.LogWriterTypeFile,
					FileName:   logFile,
					TimeFormat: "15:04:05",
					MaxSize:    100 * 1024 * 1024,
					MaxBackups: 3,
					TextOutput: true,
				})
			}
		}

		if hasStdoutOutput || !hasFileOutput {
			logger = logger.WithConsoleWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeConsole,
				TimeFormat: "15:04:05",
				TextOutput: true,
			})
		}
	}

	logger = logger.WithLevelFromString(config.Logging.Level)
	common.InitLogger(logger)
	common.PrintBanner(config, logger)

	// No production Crawler implementation ships in this module (see
	// internal/interfaces/crawler.go), so this binary runs without one.
	// ingest/sync/recover return a clear error in that case; ask still works.
	application, err := app.New(config, logger, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("Interrupt signal received")
		cancel()
	}()

	cmd := args[0]
	cmdArgs := args[1:]

	var cmdErr error
	switch cmd {
	case "ingest":
		cmdErr = runIngest(ctx, application, cmdArgs)
	case "sync":
		cmdErr = runSync(ctx, application, cmdArgs)
	case "index":
		cmdErr = runIndex(ctx, application, cmdArgs)
	case "recover":
		cmdErr = runRecover(ctx, application, cmdArgs)
	case "ask":
		cmdErr = runAsk(ctx, application, cmdArgs)
	case "version":
		fmt.Printf("sitecorpus version %s\n", common.GetVersion())
	default:
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		logger.Error().Err(cmdErr).Str("command", cmd).Msg("command failed")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: sitecorpus <command> [args]")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  ingest <seed-url> [display-name]   discover and persist a website's pages")
	fmt.Println("  sync <website-id>                  reconcile a website against its live state")
	fmt.Println("  index <website-id>                 upload pending pages to the search store")
	fmt.Println("  recover <ingestion-job-id>          resume a stuck ingestion job")
	fmt.Println("  ask <website-ref> <question>        ask a grounded question against an indexed site")
	fmt.Println("  version                              print version information")
}
