// Package graph models the processing graph handed to the engine.
//
// A Graph owns an ordered list of Stages and the Links between their
// pads. Links are immutable and each pad is linked at most once. Request
// pads are allocated per stage in index order so lane i always lands on
// pad i. The graph remembers how much of itself the engine has already
// created (the materialization watermark) so that it can be extended
// after the engine has started.
package graph
