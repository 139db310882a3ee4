// Package builder turns a pipeline configuration into a graph.
//
// Construction runs in two phases. Prefix creates the part that never
// depends on the stream (file source and demuxer). Complete runs once,
// after the demuxer reports an H.264 video pad, and builds the rest from
// the variant's ordered step table, stopping right after the configured
// truncation point. Every step leaves a list of lane tails; whatever list
// remains when the table stops is terminated with sinks.
//
// New performs the whole build on a scratch graph first, so lane counts
// that do not divide and unknown parameters fail before the engine starts.
package builder
