package patterns

import (
	"context"
	"sort"
	"time"

	"fleet-insights/internal/models"
	"fleet-insights/internal/store"
)

// HistoryRow is one line of a vehicle's maintenance history.
type HistoryRow struct {
	Date         string   `json:"date"`
	Service      string   `json:"service,omitempty"`
	Model        string   `json:"model,omitempty"`
	Km           *float64 `json:"km,omitempty"`
	VerbType     string   `json:"verbType"`
	MaterialName string   `json:"materialName"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Cost         *float64 `json:"cost,omitempty"`
	FaultCode    string   `json:"faultCode,omitempty"`
}

// VehicleHistory lists one vehicle's maintenance records oldest first.
// Records without a business date or a material name are skipped.
func (a *Analyzer) VehicleHistory(ctx context.Context, vehicleID string, limit int) ([]HistoryRow, error) {
	defer observeScan("vehicle_history", time.Now())
	events, err := a.store.Scan(ctx, store.Query{VehicleID: vehicleID})
	if err != nil {
		return nil, err
	}
	return vehicleHistory(events, vehicleID, limit), nil
}

func vehicleHistory(events []models.Event, vehicleID string, limit int) []HistoryRow {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows := make([]HistoryRow, 0, len(events))
	for i := range events {
		ev := &events[i]
		if ev.VehicleID != vehicleID {
			continue
		}
		if !ev.HasOperationDate() || ev.MaterialName == "" {
			continue
		}
		row := HistoryRow{
			Date:         ev.OperationDate.Format(time.RFC3339),
			Service:      ev.ServiceLocation,
			Model:        ev.VehicleModel,
			Km:           ev.Odometer,
			VerbType:     string(ev.Verb),
			MaterialName: ev.MaterialName,
			Quantity:     ev.Quantity,
			Cost:         ev.Cost,
		}
		if ev.HasFault() {
			row.FaultCode = ev.FaultCode
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
