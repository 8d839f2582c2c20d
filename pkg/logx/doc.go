// Package logx provides rotabot's structured logging on top of zerolog.
//
// Sinks are console (pretty, human-oriented) and an optional JSON log file.
// The Service owns sink lifecycle; Loggers created from it stay live across
// Apply() calls, so components keep their derived loggers for the whole
// process lifetime.
package logx
