// Package cli wires configuration, logging, the link extractor, the console
// prompts and the download service into the webgrab commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ytget/web-grabber/internal/config"
	"github.com/ytget/web-grabber/internal/download"
	"github.com/ytget/web-grabber/internal/model"
	"github.com/ytget/web-grabber/internal/platform"
	"github.com/ytget/web-grabber/internal/selection"
	"github.com/ytget/web-grabber/internal/ui"
)

// LowFreeSpace is the free space below which a warning is logged before a batch
const LowFreeSpace = 100 * 1024 * 1024

// ConfirmQuestion is asked before any download starts
const ConfirmQuestion = "\nAre you ready to start the download process?"

// RunOptions pre-answers prompts; zero values mean "ask"
type RunOptions struct {
	URL       string
	Filter    string
	FilterSet bool // Filter was given explicitly, even if empty
	Select    string
	AssumeYes bool
	FromHTML  string
	FromFile  string
}

// App runs the scrape → select → confirm → download pipeline
type App struct {
	settings   *config.Settings
	logger     zerolog.Logger
	console    *ui.Console
	parser     *platform.LinkParserService
	downloader download.Downloader
	dirs       platform.CategoryDirs
	out        io.Writer
}

// NewApp builds the pipeline from settings. Prompts read from in; prompts and
// progress go to out.
func NewApp(settings *config.Settings, in io.Reader, out io.Writer, logger zerolog.Logger) *App {
	client := &http.Client{}
	root, err := platform.ExpandHome(settings.GetDownloadDirectory())
	if err != nil {
		logger.Warn().Err(err).Msg("Using download directory as given")
		root = settings.GetDownloadDirectory()
	}
	dirs := platform.NewCategoryDirs(root)

	parser := platform.NewLinkParserService(client, logger,
		platform.WithPageTimeout(settings.GetTimeout()),
		platform.WithUserAgent(settings.GetUserAgent()),
		platform.WithKeepQuery(settings.GetKeepQuery()),
		platform.WithExtensionTable(settings.GetExtensionTable()),
	)

	service := download.NewService(client, dirs, logger,
		download.WithTimeout(settings.GetTimeout()),
		download.WithChunkSize(settings.GetChunkSize()),
		download.WithUserAgent(settings.GetUserAgent()),
	)
	progress := ui.NewProgressReporter(out, isTerminalWriter(out))
	service.SetProgressCallback(progress.Update)
	service.SetUpdateCallback(progress.Finish)

	return &App{
		settings:   settings,
		logger:     logger,
		console:    ui.NewConsole(in, out, logger),
		parser:     parser,
		downloader: service,
		dirs:       dirs,
		out:        out,
	}
}

// Run executes the pipeline. It returns the processed batch, or nil when
// nothing was downloaded. Declining, quitting and empty results are normal
// outcomes and return no error.
func (a *App) Run(ctx context.Context, opts RunOptions) (*model.Batch, error) {
	a.logger.Info().Msg("Starting the web scraper...")

	batch, err := a.run(ctx, opts)
	if errors.Is(err, ui.ErrAborted) {
		a.logger.Info().Msg("Aborted by user.")
		return nil, nil
	}
	return batch, err
}

func (a *App) run(ctx context.Context, opts RunOptions) (*model.Batch, error) {
	source, links, err := a.discover(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		a.logger.Info().Msg("No digital files found on the page.")
		return nil, nil
	}

	selected, err := a.selectFiles(links, opts.Select)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		a.logger.Info().Msg("No files selected for download. Exiting.")
		return nil, nil
	}

	a.logger.Info().Msgf("You have selected %d file(s) for download:", len(selected))
	for _, link := range selected {
		a.logger.Info().Msgf("%s (Category: %s)", link.DisplayURL(), link.Category)
	}

	if !opts.AssumeYes {
		ok, err := a.console.Confirm(ConfirmQuestion)
		if err != nil {
			return nil, err
		}
		if !ok {
			a.logger.Info().Msg("Download process aborted by user.")
			return nil, nil
		}
	}

	a.prepareDestinations()

	batch := a.downloader.NewBatch(source, selected)

	// Ctrl-C during the transfer cancels the current file and skips the rest
	dlCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	summary := a.downloader.DownloadBatch(dlCtx, batch)
	stop()

	a.logger.Info().Msgf("Finished processing links: %s", summary)
	if batch.HasErrors() {
		for _, task := range batch.Failed() {
			a.logger.Warn().Str("url", task.Link.DisplayURL()).Str("error", task.LastError).Msg("Failed")
		}
	}

	if a.settings.GetOpenOnComplete() && summary.Completed > 0 {
		if err := platform.OpenDirectoryInManager(a.dirs.Root); err != nil {
			a.logger.Warn().Err(err).Msg("Could not open download directory")
		}
	}

	return batch, nil
}

// discover returns the source label and the candidate links
func (a *App) discover(ctx context.Context, opts RunOptions) (string, []model.FileLink, error) {
	switch {
	case opts.FromFile != "":
		links, err := platform.ReadExportFile(opts.FromFile)
		if err != nil {
			a.logger.Error().Err(err).Str("file", opts.FromFile).Msg("Error reading links file")
			return opts.FromFile, nil, nil
		}
		return opts.FromFile, links, nil

	case opts.FromHTML != "":
		var base *url.URL
		if platform.IsValidURL(opts.URL) {
			base, _ = url.Parse(opts.URL)
		}
		f, err := os.Open(opts.FromHTML)
		if err != nil {
			a.logger.Error().Err(err).Str("file", opts.FromHTML).Msg("Error reading HTML file")
			return opts.FromHTML, nil, nil
		}
		defer f.Close()
		links, err := a.parser.ParseLinks(base, f, opts.Filter)
		if err != nil {
			a.logger.Error().Err(err).Str("file", opts.FromHTML).Msg("Error parsing HTML file")
			return opts.FromHTML, nil, nil
		}
		return opts.FromHTML, links, nil
	}

	pageURL := opts.URL
	if pageURL != "" && !platform.IsValidURL(pageURL) {
		a.logger.Warn().Str("input", pageURL).Msg("Invalid URL. Please enter a valid URL.")
		pageURL = ""
	}
	if pageURL == "" {
		var err error
		if pageURL, err = a.console.PromptURL(); err != nil {
			return "", nil, err
		}
	}

	filter := opts.Filter
	if !opts.FilterSet {
		var err error
		if filter, err = a.console.PromptDomainFilter(); err != nil {
			return "", nil, err
		}
	}

	return pageURL, a.parser.FindDigitalFiles(ctx, pageURL, filter), nil
}

// selectFiles applies a preset expression, falling back to the prompt when
// it is missing or invalid
func (a *App) selectFiles(links []model.FileLink, preset string) ([]model.FileLink, error) {
	if preset == "" {
		return a.console.SelectFiles(links)
	}

	a.console.ShowCandidates(links)
	indices, err := selection.Resolve(preset, len(links))
	if err == nil {
		return selection.Apply(links, indices), nil
	}
	a.logger.Warn().Err(err).Str("selection", preset).Msg("Invalid selection")
	return a.console.PromptSelection(links)
}

// prepareDestinations creates the category directories and warns on low disk space
func (a *App) prepareDestinations() {
	if err := a.dirs.Ensure(); err != nil {
		a.logger.Warn().Err(err).Msg("Could not create download directories")
		return
	}

	free, err := platform.FreeSpace(a.dirs.Root)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Free space unavailable")
		return
	}
	if free < LowFreeSpace {
		a.logger.Warn().Str("free", ui.FormatBytes(int64(free))).Str("dir", a.dirs.Root).Msg("Low free disk space")
	}
}

// isTerminalWriter reports whether w is a terminal file
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTerminal(f)
}

// listLinks extracts links for the list and export commands
func (a *App) listLinks(ctx context.Context, opts RunOptions) ([]model.FileLink, error) {
	_, links, err := a.discover(ctx, opts)
	if errors.Is(err, ui.ErrAborted) {
		return nil, nil
	}
	return links, err
}

// printLinks writes the numbered candidate list
func (a *App) printLinks(links []model.FileLink) {
	for i, link := range links {
		fmt.Fprintf(a.out, "%d. %s (Category: %s)\n", i+1, link.DisplayURL(), link.Category)
	}
}

// exportLinks writes links to filename in the grouped links file format
func (a *App) exportLinks(filename string, links []model.FileLink) error {
	if err := platform.WriteExportFile(filename, links); err != nil {
		return fmt.Errorf("failed to export links: %w", err)
	}
	a.logger.Info().Int("links", len(links)).Str("file", filename).Msg("Exported links")
	return nil
}
