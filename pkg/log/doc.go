/*
Package log provides structured logging for netemu using zerolog.

The process logger is built once from a Config at startup (Init) and then only
read. Components derive child loggers instead of mutating it:

	logger := log.WithComponent("topology")
	nodeLog := log.WithNode(log.WithExecution(logger, "csle-level2", 15), "15.12.2.10")
	nodeLog.Debug().Str("cmd", cmd).Msg("running remote command")

Console output is the default; set JSONOutput for machine-readable logs.
*/
package log
