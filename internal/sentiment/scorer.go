package sentiment

import (
	"context"
	"fmt"

	"github.com/simpliearn/simpliearn-backend/internal/platform/inference"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type Options struct {
	BatchSize int
	MaxLength int
	MAWindow  int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxLength <= 0 {
		o.MaxLength = DefaultMaxLength
	}
	if o.MAWindow < 0 {
		o.MAWindow = 0
	}
	return o
}

type Scorer struct {
	log *logger.Logger
	clf inference.Client
}

func NewScorer(log *logger.Logger, clf inference.Client) *Scorer {
	return &Scorer{log: log.With("component", "SentimentScorer"), clf: clf}
}

// Score splits text into sentences, classifies them in batches and returns one row per
// sentence. Any classification error aborts the whole run; no partial rows are returned.
func (s *Scorer) Score(ctx context.Context, m Metric, text string, opts Options) ([]Row, error) {
	model := m.Model()
	if model == "" {
		return nil, fmt.Errorf("no model for metric %q", m)
	}
	opts = opts.withDefaults()
	sents := SplitSentences(text)
	if len(sents) == 0 {
		return []Row{}, nil
	}

	preds := make([]inference.Prediction, 0, len(sents))
	for i := 0; i < len(sents); i += opts.BatchSize {
		end := i + opts.BatchSize
		if end > len(sents) {
			end = len(sents)
		}
		out, err := s.clf.Classify(ctx, model, sents[i:end], opts.MaxLength)
		if err != nil {
			return nil, err
		}
		preds = append(preds, out...)
	}

	id2label, err := s.clf.ID2Label(ctx, model)
	if err != nil {
		s.log.Warn("id2label unavailable; using raw labels", "model", model, "error", err)
		id2label = nil
	}

	return BuildRows(sents, preds, id2label, opts.MAWindow), nil
}

// BuildRows turns sentences and their predictions into scored rows with a trailing moving
// average over the unit-scale values.
func BuildRows(sents []string, preds []inference.Prediction, id2label map[int]string, maWindow int) []Row {
	n := len(sents)
	if len(preds) < n {
		n = len(preds)
	}
	rows := make([]Row, 0, n)
	units := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		raw := preds[i].Label
		if raw == "" {
			raw = "LABEL_0"
		}
		name, id := ParseLabel(raw, id2label)
		unit := ToUnit(id, preds[i].Score)
		units = append(units, unit)
		rows = append(rows, Row{
			SentenceIndex: i,
			SentenceText:  sents[i],
			RawLabel:      raw,
			LabelID:       id,
			LabelName:     name,
			Score:         Round6(preds[i].Score),
			Unit:          Round6(unit),
			Signed:        Round6(UnitToSigned(unit)),
		})
	}
	for i, ma := range MovingAverage(units, maWindow) {
		if ma != nil {
			v := Round6(*ma)
			rows[i].MovingAverage = &v
		}
	}
	return rows
}
