// Package validation checks configuration structs before a run starts.
//
// Struct tags are evaluated with go-playground/validator; field names in
// messages are the mapstructure keys the user wrote in the config file.
// Rules that span several fields are collected with the programmatic
// Validator:
//
//	v := validation.New()
//	v.OneOf("sink", cfg.Sink, sinks)
//	v.Custom(cfg.Sink == "fakesink" || cfg.SinkLocation != "", "sink_location", "is required for persisted sinks")
//	return v.Validate()
package validation
