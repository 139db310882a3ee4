// Package aggregator runs the analysis-aggregator side-process that consumes
// tracker and inference output over local TCP ports. It owns port
// allocation, the aggregator command line and the process lifetime.
package aggregator
