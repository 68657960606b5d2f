package sentiment

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Row is one scored sentence. Rows are immutable once built and ordered by SentenceIndex.
type Row struct {
	SentenceIndex int      `json:"sentence_index"`
	SentenceText  string   `json:"sentence_text"`
	RawLabel      string   `json:"raw_label"`
	LabelID       int      `json:"label_id"`
	LabelName     string   `json:"label_name"`
	Score         float64  `json:"score"`
	Unit          float64  `json:"metric_0_1"`
	Signed        float64  `json:"metric_-1_1"`
	MovingAverage *float64 `json:"moving_average_0_1"`
}

func Header(m Metric) []string {
	return []string{
		"sentence_index",
		"sentence_text",
		"raw_label",
		"label_id",
		"label_name",
		"score",
		m.UnitColumn(),
		m.SignedColumn(),
		m.MAColumn(),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes rows under the metric's header. A nil moving average is an empty cell.
func WriteCSV(w io.Writer, m Metric, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(m)); err != nil {
		return err
	}
	for _, r := range rows {
		ma := ""
		if r.MovingAverage != nil {
			ma = formatFloat(*r.MovingAverage)
		}
		rec := []string{
			strconv.Itoa(r.SentenceIndex),
			r.SentenceText,
			r.RawLabel,
			strconv.Itoa(r.LabelID),
			r.LabelName,
			formatFloat(r.Score),
			formatFloat(r.Unit),
			formatFloat(r.Signed),
			ma,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Table is a CSV decoded for JSON consumers: numeric cells become float64, empty, "None" and
// non-finite cells nil.
type Table struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return &Table{Columns: []string{}, Data: []map[string]any{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	t := &Table{Columns: header, Data: []map[string]any{}}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row := make(map[string]any, len(header))
		for i, col := range header {
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			if textColumns[col] {
				row[col] = cell
				continue
			}
			row[col] = convertCell(cell)
		}
		t.Data = append(t.Data, row)
	}
	return t, nil
}

var textColumns = map[string]bool{"sentence_text": true, "raw_label": true, "label_name": true}

// convertCell maps empty and "None" cells to nil and numbers to float64. NaN and infinities have
// no JSON encoding and become nil too.
func convertCell(cell string) any {
	s := strings.TrimSpace(cell)
	if s == "" || s == "None" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return cell
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// Smoothed adds smoothed_0_1 to each row of a metric table: the precomputed moving average
// where present, otherwise the presentation-side trailing average over the unit column.
func (t *Table) Smoothed(m Metric) {
	if t == nil {
		return
	}
	unit := make([]*float64, len(t.Data))
	for i, row := range t.Data {
		if f, ok := row[m.UnitColumn()].(float64); ok {
			v := f
			unit[i] = &v
		}
	}
	smooth := Smooth(unit, SmoothingWindow)
	for i, row := range t.Data {
		if ma, ok := row[m.MAColumn()].(float64); ok {
			row["smoothed_0_1"] = ma
			continue
		}
		if smooth[i] != nil {
			row["smoothed_0_1"] = *smooth[i]
		} else {
			row["smoothed_0_1"] = nil
		}
	}
}
