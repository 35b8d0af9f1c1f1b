// Package logging provides structured logging for resumer.
//
// It wraps log/slog with a JSON handler and adds child loggers that carry
// the run context (phase, task) on every entry:
//
//	logger, err := logging.NewLogger(runDir, "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithPhase("target_train").WithTask("mrpc").Info("found checkpoint", "epoch", 2)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"found checkpoint","phase":"target_train","task":"mrpc","epoch":2}
//
// When the directory is empty, logs go to stderr. Use [NopLogger] in tests.
//
// The logger is configured from the logging section of the config file:
//
//	logging:
//	  enabled: true
//	  level: info
//	  dir: ""
package logging
