package ui

// Package ui provides the terminal front end: blocking read-evaluate-retry
// prompts for the page URL, domain filter, file selection and confirmation,
// plus per-file byte progress bars.
