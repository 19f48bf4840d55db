package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/amice/core/disagg"
	"github.com/kilianp07/amice/core/feature"
	"github.com/kilianp07/amice/core/model"
	"github.com/kilianp07/amice/core/timeline"
)

func sampleReport() disagg.Report {
	return disagg.Report{
		RunID: "run-1",
		Results: []disagg.Result{
			{Appliance: "kettle", Anchor: 10, AbsoluteAnchor: 100, FeatureErr: 1.5, TimeErr: 2, IDs: []int{1, 3}},
		},
		Residual:  1,
		Unmatched: []timeline.Record{{ID: 2, T: 40, Feature: feature.LoadStep(75)}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport()))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "appliance", rows[0][1])
	assert.Equal(t, []string{"run-1", "kettle", "10", "100", "1.5", "2", "3.5", "2"}, rows[1])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))
	var out struct {
		RunID     string            `json:"run_id"`
		Residual  int               `json:"residual"`
		Results   []disagg.Result   `json:"results"`
		Unmatched []timeline.Record `json:"unmatched"`
		Summary   disagg.Summary    `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, 1, out.Residual)
	assert.Equal(t, []int{1, 3}, out.Results[0].IDs)
	assert.Equal(t, 1, out.Summary.Matches)
	assert.Equal(t, 2, out.Summary.Consumed)
	assert.InDelta(t, 3.5, out.Summary.MeanScore, 1e-9)
	require.Len(t, out.Unmatched, 1)
	assert.Equal(t, feature.LoadStep(75), out.Unmatched[0].Feature)
}

func TestWrite_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "CSV", sampleReport()))
	assert.Contains(t, buf.String(), "kettle")
	assert.Error(t, Write(&buf, "xml", sampleReport()))
}

func TestWriteChart(t *testing.T) {
	agg, err := model.IndexSeries([]float64{0, 0, 2000, 2000, 0})
	require.NoError(t, err)
	rep := disagg.Report{RunID: "run-chart", Results: []disagg.Result{{Appliance: "kettle", AbsoluteAnchor: 2.2}}}

	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, agg, rep))
	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "run-chart")
	assert.Contains(t, html, "kettle")
}

func TestNearest(t *testing.T) {
	assert.Equal(t, -1, nearest(nil, 3))
	assert.Equal(t, 2, nearest([]float64{0, 1, 2, 3}, 2.4))
	assert.Equal(t, 0, nearest([]float64{5, 6}, -10))
}
