// Package log provides structured logging helpers for Gramflow.
//
// The pipeline handles session credentials, proxy URLs with embedded
// userinfo, and a language-model API key. This package wraps slog with a
// sanitizing handler so none of those values reach log output verbatim.
package log
