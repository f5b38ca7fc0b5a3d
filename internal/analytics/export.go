package analytics

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

// decisionCSVHeader fixes the column order for CSV exports.
var decisionCSVHeader = []string{
	"id", "user_id", "decision_type", "title", "description",
	"timeframe", "priority", "status", "confidence", "results",
	"created_at", "updated_at",
}

// DecisionsCSV renders decisions as CSV with a fixed header row. An
// empty slice yields just the header.
func DecisionsCSV(decisions []model.Decision) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(decisionCSVHeader); err != nil {
		return nil, eris.Wrap(err, "analytics: write csv header")
	}

	for _, d := range decisions {
		confidence := ""
		if d.Confidence != nil {
			confidence = strconv.FormatFloat(*d.Confidence, 'f', -1, 64)
		}
		results := ""
		if d.Results != nil {
			data, err := json.Marshal(d.Results)
			if err != nil {
				return nil, eris.Wrap(err, "analytics: marshal results for csv")
			}
			results = string(data)
		}

		row := []string{
			d.ID,
			d.UserID,
			string(d.DecisionType),
			d.Title,
			d.Description,
			d.Timeframe,
			string(d.Priority),
			string(d.Status),
			confidence,
			results,
			d.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			d.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := w.Write(row); err != nil {
			return nil, eris.Wrap(err, "analytics: write csv row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "analytics: flush csv")
	}
	return buf.Bytes(), nil
}
