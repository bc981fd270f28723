// Package logging assembles the structured slog loggers used across
// snapsort.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so every component tags its
// lines the same way. A no-op logger is provided for tests and wiring
// code that cannot fail, and ProgressMeter rate-limits the per-file
// progress lines the scan, analyze, organize, and dedup phases emit.
package logging
