// Package logger provides structured logging for covaflow using zerolog.
//
// A process-wide logger is configured once with Init; packages obtain
// component-scoped loggers with Get and attach map-based fields:
//
//	log := logger.Get("builder")
//	log.Info("stage created", logger.Fields(logger.FieldStage, id, logger.FieldLane, 0))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
package logger
