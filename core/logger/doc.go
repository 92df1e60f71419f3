// Package logger is a standardized event logging framework for the shell.
//
// Events are written by zap as newline delimited JSON objects and can be
// read back with ReadJSONLinesLog to build a Report.
package logger
