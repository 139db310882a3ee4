// Package gstreamer implements engine.Engine on GStreamer through go-gst.
//
// Each graph stage becomes an element named after the stage ID, so bus
// messages and pad-added signals carry stage IDs as their source. Pads
// discovered at runtime are reported as StreamDiscovered events and the
// streaming thread that found them waits until the event is acknowledged,
// giving the caller time to create and link the downstream stages.
package gstreamer
