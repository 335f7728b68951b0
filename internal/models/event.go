package models

import "time"

// VerbType classifies the maintenance action recorded by an event.
type VerbType string

const (
	VerbMaintain VerbType = "BAKIM"
	VerbRepair   VerbType = "ONARIM"
	VerbInspect  VerbType = "KONTROL"
	VerbOther    VerbType = "DIGER"
)

// Event is one immutable maintenance record, already coalesced from the two
// legacy document roots at the store read boundary. Downstream code never
// re-checks both roots.
type Event struct {
	ID                string     `json:"id"`
	VehicleID         string     `json:"vehicleId"`
	Verb              VerbType   `json:"verb"`
	MaterialCode      string     `json:"materialCode,omitempty"`
	MaterialName      string     `json:"materialName,omitempty"`
	VehicleType       string     `json:"vehicleType,omitempty"`
	VehicleModel      string     `json:"vehicleModel,omitempty"`
	Manufacturer      string     `json:"manufacturer,omitempty"`
	StockType         string     `json:"stockType,omitempty"`
	OperationCategory string     `json:"operationCategory,omitempty"`
	SeparationType    string     `json:"separationType,omitempty"`
	CustomerID        string     `json:"customerId,omitempty"`
	ServiceLocation   string     `json:"serviceLocation,omitempty"`
	WorkorderID       string     `json:"workorderId,omitempty"`
	FaultCode         string     `json:"faultCode,omitempty"`
	Cost              *float64   `json:"cost,omitempty"`
	Quantity          *float64   `json:"quantity,omitempty"`
	Odometer          *float64   `json:"odometer,omitempty"`
	Discount          *float64   `json:"discount,omitempty"`
	OperationDate     *time.Time `json:"operationDate,omitempty"`
}

// HasOperationDate reports whether a business date could be resolved for
// this event. Events without one are excluded from time-grouped queries.
func (e *Event) HasOperationDate() bool {
	return e.OperationDate != nil && !e.OperationDate.IsZero()
}

// HasFault reports whether the event carries a real fault code, treating the
// historical sentinel values as empty.
func (e *Event) HasFault() bool {
	switch e.FaultCode {
	case "", "0", "none", "null", "None", "NULL":
		return false
	}
	return true
}

// UnitCost returns the per-unit material cost when both cost and a positive
// quantity are present; otherwise the raw cost.
func (e *Event) UnitCost() (float64, bool) {
	if e.Cost == nil {
		return 0, false
	}
	if e.Quantity != nil && *e.Quantity > 0 {
		return *e.Cost / *e.Quantity, true
	}
	return *e.Cost, true
}

// MaterialFamily returns the family prefix of the material code, the part
// before the first dash (81.12501-6101 -> 81.12501).
func (e *Event) MaterialFamily() string {
	code := e.MaterialCode
	for i := 0; i < len(code); i++ {
		if code[i] == '-' {
			return code[:i]
		}
	}
	return code
}

// SeasonOf maps a month number to its season key. December belongs to the
// winter bucket of the following year; callers that need the shifted year
// use PivotYear.
func SeasonOf(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return "kis"
	case time.March, time.April, time.May:
		return "ilkbahar"
	case time.June, time.July, time.August:
		return "yaz"
	default:
		return "sonbahar"
	}
}

// PivotYear returns the year an event is attributed to when bucketing by
// season: December counts toward the next year's winter.
func PivotYear(t time.Time) int {
	if t.Month() == time.December {
		return t.Year() + 1
	}
	return t.Year()
}
