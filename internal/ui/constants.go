package ui

import "time"

// UI-wide constants to avoid magic strings scattered across the prompts.

// Prompts
const (
	PromptTargetURL    = "Enter the URL to scrape for digital files: "
	PromptDomainFilter = "Enter a domain filter (optional, press Enter to skip): "
	PromptWhichFiles   = "\nWhich files would you like to download? "
	ConfirmSuffix      = " (y/n): "
)

// Help text shown with the candidate list
const (
	OptionsHeader = "\nOptions:"
	OptionAll     = "  - Enter 'all' to download all files."
	OptionNone    = "  - Enter 'none' to skip all files."
	OptionNumbers = "  - Enter specific numbers (e.g., '1 3 5') to select files."
	OptionRange   = "  - Enter a range (e.g., '1-3') to select a range of files."
	OptionQuit    = "  - Enter 'quit' to exit."
	SelectionHint = "Please try again (e.g., 'all', 'none', '1 3 5', '1-3')."
)

// QuitToken aborts any prompt
const QuitToken = "quit"

// Progress bar layout
const (
	ProgressBarWidth    = 30
	ProgressThrottle    = 65 * time.Millisecond
	ProgressSpinnerType = 14
	MaxDescriptionLen   = 40
	EllipsisSuffix      = "..."
)
