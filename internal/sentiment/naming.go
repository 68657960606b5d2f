package sentiment

import (
	"path"
	"strings"
	"time"
)

// DefaultOutputFile is <input_base>_<metric>_<YYYYmmdd_HHMMSS>.csv, input_base being the input
// file name without directory or extension.
func DefaultOutputFile(inputFile string, m Metric, at time.Time) string {
	base := path.Base(strings.TrimSpace(inputFile))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "transcript"
	}
	return base + "_" + string(m) + "_" + at.Format("20060102_150405") + ".csv"
}
