package platform

// Package platform contains OS/platform integration and network glue:
// URL validation, page fetching and link extraction, destination directory
// layout, filename sanitizing, disk space checks and the export file format.
