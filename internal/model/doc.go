package model

// Package model defines domain data structures used across the app: file
// links discovered on a page, their categories, per-file download tasks and
// the batch that groups them. Structures are plain values with explicit
// state transitions; nothing here performs I/O.
