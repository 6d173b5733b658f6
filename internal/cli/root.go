package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ytget/web-grabber/internal/config"
	"github.com/ytget/web-grabber/internal/logging"
)

const (
	AppName = "webgrab"
	AppDesc = "Scrape a web page for digital files and download the ones you pick"
)

// Streams groups the process I/O so commands can run against buffers in tests
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// DefaultStreams returns stdin, stdout and stderr
func DefaultStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Execute runs the root command
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version, DefaultStreams()).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Settings are resolved in this
// order: flags, WEBGRAB_* environment, config file, defaults.
func NewRootCommand(version string, streams Streams) *cobra.Command {
	settings := config.NewSettings()
	var configFile string
	opts := &RunOptions{}

	root := &cobra.Command{
		Use:           AppName + " [url]",
		Short:         AppDesc,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := settings.Load(configFile); err != nil {
				return err
			}
			return settings.BindFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && opts.URL == "" {
				opts.URL = args[0]
			}
			opts.FilterSet = cmd.Flags().Changed("filter")

			return withApp(settings, streams, func(app *App) error {
				_, err := app.Run(cmd.Context(), *opts)
				return err
			})
		},
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ./webgrab.yaml or ~/.config/webgrab/webgrab.yaml)")
	pf.StringP("output", "o", config.DefaultDownloadDir, "root directory for downloaded files")
	pf.Duration("timeout", config.DefaultTimeout, "timeout for the page request and for each stalled download")
	pf.Int("chunk-size", config.DefaultChunkSize, "download read size in bytes")
	pf.String("user-agent", config.DefaultUserAgent, "User-Agent header for all requests")
	pf.String("log-file", config.DefaultLogFile, "append log records to this file (empty disables)")
	pf.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	pf.Bool("keep-query", config.DefaultKeepQuery, "keep query strings on extracted links")

	addSourceFlags(root, opts)
	f := root.Flags()
	f.StringVarP(&opts.Select, "select", "s", "", `preset selection, e.g. "1 3-5", "all" or "none"`)
	f.BoolVarP(&opts.AssumeYes, "yes", "y", false, "start downloading without asking for confirmation")
	f.Bool("open-on-complete", config.DefaultOpenOnDone, "open the download directory when the batch finishes")

	root.AddCommand(
		newListCommand(settings, streams),
		newExportCommand(settings, streams),
		newVersionCommand(version),
	)
	return root
}

// addSourceFlags registers the flags that choose where links come from
func addSourceFlags(cmd *cobra.Command, opts *RunOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.URL, "url", "u", "", "page to scrape")
	f.StringVarP(&opts.Filter, "filter", "f", "", "only keep links whose href contains this text")
	f.StringVar(&opts.FromHTML, "from-html", "", "parse a saved HTML file instead of fetching; --url sets the base")
	f.StringVar(&opts.FromFile, "from-file", "", "read links from a file written by the export command")
}

func newListCommand(settings *config.Settings, streams Streams) *cobra.Command {
	opts := &RunOptions{}
	cmd := &cobra.Command{
		Use:   "list [url]",
		Short: "Print the digital files found on a page without downloading",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && opts.URL == "" {
				opts.URL = args[0]
			}
			opts.FilterSet = true

			return withApp(settings, streams, func(app *App) error {
				links, err := app.listLinks(cmd.Context(), *opts)
				if err != nil {
					return err
				}
				app.printLinks(links)
				return nil
			})
		},
	}
	addSourceFlags(cmd, opts)
	return cmd
}

func newExportCommand(settings *config.Settings, streams Streams) *cobra.Command {
	opts := &RunOptions{}
	var target string
	cmd := &cobra.Command{
		Use:   "export [url]",
		Short: "Write the digital files found on a page to a links file grouped by category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && opts.URL == "" {
				opts.URL = args[0]
			}
			opts.FilterSet = true

			return withApp(settings, streams, func(app *App) error {
				links, err := app.listLinks(cmd.Context(), *opts)
				if err != nil {
					return err
				}
				if len(links) == 0 {
					app.logger.Info().Msg("No digital files found on the page.")
					return nil
				}
				return app.exportLinks(target, links)
			})
		},
	}
	addSourceFlags(cmd, opts)
	cmd.Flags().StringVarP(&target, "links-file", "l", "links.txt", "file to write")
	return cmd
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", AppName, version)
			return err
		},
	}
}

// withApp builds the logger and the pipeline, runs fn, and releases the log file
func withApp(settings *config.Settings, streams Streams, fn func(*App) error) error {
	logger, closer, err := newLogger(settings, streams.Err)
	if err != nil {
		return err
	}
	defer closer.Close()

	if used := settings.ConfigFileUsed(); used != "" {
		logger.Debug().Str("file", used).Msg("Loaded config")
	}
	return fn(NewApp(settings, streams.In, streams.Out, logger))
}

func newLogger(settings *config.Settings, console io.Writer) (zerolog.Logger, io.Closer, error) {
	return logging.New(logging.Options{
		Level:   settings.GetLogLevel(),
		File:    settings.GetLogFile(),
		Console: console,
		NoColor: !isTerminalWriter(console),
	})
}
