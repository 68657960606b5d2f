package sentiment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Metric string

const (
	Relevance   Metric = "relevance"
	Specificity Metric = "specificity"
)

const (
	DefaultBatchSize = 32
	DefaultMaxLength = 512
	DefaultMAWindow  = 20
	SmoothingWindow  = 5
)

var models = map[Metric]string{
	Relevance:   "gtfintechlab/SubjECTiveQA-RELEVANT",
	Specificity: "gtfintechlab/SubjECTiveQA-SPECIFIC",
}

func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case Relevance:
		return Relevance, nil
	case Specificity:
		return Specificity, nil
	}
	return "", fmt.Errorf("unknown analysis type %q (want relevance|specificity)", s)
}

func (m Metric) Model() string { return models[m] }

// Column names for this metric's score columns.
func (m Metric) UnitColumn() string   { return string(m) + "_0_1" }
func (m Metric) SignedColumn() string { return string(m) + "_-1_1" }
func (m Metric) MAColumn() string     { return "ma_" + string(m) + "_0_1" }

var labelBase = map[int]float64{0: 0.00, 1: 0.34, 2: 0.67}

const labelWidth = 0.33

// ParseLabel turns a raw model label into (label name, label id). LABEL_<n> yields n; anything
// else yields -1. The name comes from id2label when it knows the id, otherwise the raw label.
func ParseLabel(raw string, id2label map[int]string) (string, int) {
	id := -1
	if strings.HasPrefix(raw, "LABEL_") {
		if n, err := strconv.Atoi(strings.TrimPrefix(raw, "LABEL_")); err == nil {
			id = n
		}
	}
	if id >= 0 {
		if name, ok := id2label[id]; ok && name != "" {
			return name, id
		}
	}
	return raw, id
}

// ToUnit maps a 3-class label and its confidence onto [0,1]: class 0 covers 0.00..0.33,
// class 1 0.34..0.67, class 2 0.67..1.00. Unknown ids start at 0.
func ToUnit(labelID int, score float64) float64 {
	v := labelBase[labelID] + score*labelWidth
	return math.Max(0, math.Min(1, v))
}

func UnitToSigned(v float64) float64 { return v*2 - 1 }
func SignedToUnit(v float64) float64 { return (v + 1) / 2 }

func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// MovingAverage is a trailing simple moving average. The first window-1 entries are nil, and a
// window below 2 disables it entirely.
func MovingAverage(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window < 2 {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			avg := sum / float64(window)
			out[i] = &avg
		}
	}
	return out
}

// Smooth recomputes a trailing average over the non-nil values inside each window. A window
// with no values yields nil.
func Smooth(values []*float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window < 1 {
		window = 1
	}
	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		sum, n := 0.0, 0
		for _, v := range values[lo : i+1] {
			if v != nil {
				sum += *v
				n++
			}
		}
		if n > 0 {
			avg := Round6(sum / float64(n))
			out[i] = &avg
		}
	}
	return out
}
