package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ytget/web-grabber/internal/model"
	"github.com/ytget/web-grabber/internal/platform"
	"github.com/ytget/web-grabber/internal/selection"
)

// ErrAborted is returned when the operator quits or input ends
var ErrAborted = errors.New("aborted by user")

// Console runs the interactive prompts over a line-oriented input stream
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	logger zerolog.Logger
}

// NewConsole creates a console reading answers from in and writing prompts to out
func NewConsole(in io.Reader, out io.Writer, logger zerolog.Logger) *Console {
	return &Console{
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
	}
}

// PromptURL asks for the page URL until a valid absolute URL is entered
func (c *Console) PromptURL() (string, error) {
	for {
		answer, err := c.readLine(PromptTargetURL)
		if err != nil {
			return "", err
		}
		if platform.IsValidURL(answer) {
			return answer, nil
		}
		c.logger.Warn().Str("input", answer).Msg("Invalid URL. Please enter a valid URL.")
	}
}

// PromptDomainFilter asks for the optional href filter; empty means none
func (c *Console) PromptDomainFilter() (string, error) {
	return c.readLine(PromptDomainFilter)
}

// SelectFiles lists links and asks which to keep until the expression parses
func (c *Console) SelectFiles(links []model.FileLink) ([]model.FileLink, error) {
	if len(links) == 0 {
		return nil, nil
	}

	c.ShowCandidates(links)
	return c.PromptSelection(links)
}

// PromptSelection asks which of the already listed links to keep until the
// expression parses
func (c *Console) PromptSelection(links []model.FileLink) ([]model.FileLink, error) {
	for {
		answer, err := c.readLine(PromptWhichFiles)
		if err != nil {
			return nil, err
		}
		indices, err := selection.Resolve(answer, len(links))
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v. %s\n", err, SelectionHint)
			continue
		}
		return selection.Apply(links, indices), nil
	}
}

// ShowCandidates prints the numbered list of links with the selection help
func (c *Console) ShowCandidates(links []model.FileLink) {
	fmt.Fprintln(c.out, "\nFound the following files:")
	for i, link := range links {
		fmt.Fprintf(c.out, "%d. %s (Category: %s)\n", i+1, link.DisplayURL(), link.Category)
	}

	for _, line := range []string{OptionsHeader, OptionAll, OptionNone, OptionNumbers, OptionRange, OptionQuit} {
		fmt.Fprintln(c.out, line)
	}
}

// Confirm asks a yes/no question until y/yes or n/no is entered
func (c *Console) Confirm(question string) (bool, error) {
	for {
		answer, err := c.readLine(question + ConfirmSuffix)
		if err != nil {
			return false, err
		}
		ok, err := selection.ParseConfirmation(answer)
		if err != nil {
			fmt.Fprintf(c.out, "%s.\n", capitalize(err.Error()))
			continue
		}
		return ok, nil
	}
}

// readLine prints prompt and returns the trimmed answer. End of input and
// the quit token both yield ErrAborted.
func (c *Console) readLine(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)

	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out)
			return "", ErrAborted
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	answer := strings.TrimSpace(line)
	if strings.EqualFold(answer, QuitToken) {
		return "", ErrAborted
	}
	return answer, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
