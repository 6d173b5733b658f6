package download

// Package download implements the file download pipeline: one streaming
// HTTP GET per selected link, written in fixed-size chunks into the
// category directory, with progress propagation to the console and
// per-file failure isolation across a batch.
