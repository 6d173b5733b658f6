package selection

// Package selection parses the operator's answers at the interactive
// prompts: selection expressions ("all", "none", "1 3 5", "2-4") and yes/no
// confirmations. Parsing is pure; the re-prompt loops live in package ui.
