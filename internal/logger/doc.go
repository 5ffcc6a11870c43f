// Package logger wraps zap to provide:
//   - a process-wide sugared logger writing a compact console format to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV) so every call site
//     logs with the scope it was handed,
//   - level parsing and runtime level switching,
//   - context-first convenience functions (Infof, WarnKV, ErrorKV, ...).
//
// The alarm daemon and the CLI never create loggers of their own; they derive
// named children from the context.
package logger
