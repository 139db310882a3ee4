package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Report keys, one "key: value" line each.
const (
	KeyElapsed           = "Elapsed seconds"
	KeyDropped           = "CoVA dropped"
	KeyDecodedDependency = "CoVA decoded dependency"
	KeyDecodedInference  = "CoVA decoded inference"
	KeyDecodeRate        = "CoVA decoding rate"
	KeyInferenceRate     = "CoVA inference rate"
)

// WriteReport writes the report for s. Tracker lines are written only when
// trackers were collected.
func WriteReport(w io.Writer, s *RunStatistics) error {
	var b strings.Builder
	line(&b, KeyElapsed, strconv.FormatFloat(s.Elapsed.Seconds(), 'f', -1, 64))
	if s.HasTrackers() {
		line(&b, KeyDropped, strconv.FormatUint(s.Dropped, 10))
		line(&b, KeyDecodedDependency, strconv.FormatUint(s.DecodedDependency, 10))
		line(&b, KeyDecodedInference, strconv.FormatUint(s.DecodedInference, 10))
		line(&b, KeyDecodeRate, percent(s.DecodeRate))
		line(&b, KeyInferenceRate, percent(s.InferenceRate))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func line(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s: %s\n", key, value)
}

// percent formats a rate as a percentage with two decimals, or NaN.
func percent(rate float64) string {
	if math.IsNaN(rate) {
		return "NaN"
	}
	return strconv.FormatFloat(rate*100, 'f', 2, 64) + "%"
}
