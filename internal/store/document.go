package store

import (
	"strconv"
	"strings"
	"time"

	"fleet-insights/internal/models"
)

// Raw documents come in two historical shapes: the statement at the top
// level, or nested under a "statement" key. Extension keys are full URIs;
// only the last path segment identifies the field, and one old exporter
// wrote "vehicletype" in all lowercase. DecodeDocument tolerates all of it.

const (
	vehicleAccountPrefix = "vehicle/"
	materialIDMarker     = "/activities/material/"
	serviceIDMarker      = "/activities/service-location/"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodeDocument flattens one raw store document into an Event. Missing
// fields stay zero; a document with no usable content still decodes.
func DecodeDocument(doc map[string]interface{}) models.Event {
	if inner, ok := doc["statement"].(map[string]interface{}); ok {
		doc = inner
	}
	var ev models.Event

	if id, ok := doc["id"].(string); ok {
		ev.ID = id
	}

	if actor, ok := doc["actor"].(map[string]interface{}); ok {
		if account, ok := actor["account"].(map[string]interface{}); ok {
			if name, ok := account["name"].(string); ok {
				ev.VehicleID = strings.TrimPrefix(name, vehicleAccountPrefix)
			}
		}
	}

	if verb, ok := doc["verb"].(map[string]interface{}); ok {
		if id, ok := verb["id"].(string); ok {
			ev.Verb = verbFromID(id)
		}
	}

	if object, ok := doc["object"].(map[string]interface{}); ok {
		if id, ok := object["id"].(string); ok {
			if i := strings.Index(id, materialIDMarker); i >= 0 {
				ev.MaterialCode = id[i+len(materialIDMarker):]
			}
		}
		if def, ok := object["definition"].(map[string]interface{}); ok {
			if name, ok := def["name"].(map[string]interface{}); ok {
				for _, lang := range []string{"tr-TR", "en-US"} {
					if s, ok := name[lang].(string); ok && s != "" {
						ev.MaterialName = s
						break
					}
				}
			}
		}
	}

	ctxObj, _ := doc["context"].(map[string]interface{})
	if ctxObj != nil {
		if ca, ok := ctxObj["contextActivities"].(map[string]interface{}); ok {
			ev.ServiceLocation = serviceFromGrouping(ca)
		}
		if ext, ok := ctxObj["extensions"].(map[string]interface{}); ok {
			applyExtensions(&ev, ext)
		}
	}
	return ev
}

func verbFromID(id string) models.VerbType {
	switch {
	case strings.HasSuffix(id, "/maintained"):
		return models.VerbMaintain
	case strings.HasSuffix(id, "/repaired"):
		return models.VerbRepair
	case strings.HasSuffix(id, "/inspected"):
		return models.VerbInspect
	}
	return models.VerbOther
}

func serviceFromGrouping(contextActivities map[string]interface{}) string {
	grouping, ok := contextActivities["grouping"].([]interface{})
	if !ok {
		return ""
	}
	for _, g := range grouping {
		gm, ok := g.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := gm["id"].(string)
		if i := strings.Index(id, serviceIDMarker); i >= 0 {
			return id[i+len(serviceIDMarker):]
		}
	}
	return ""
}

// extKey reduces a full extension URI to its identifying last segment.
func extKey(uri string) string {
	if i := strings.LastIndexByte(uri, '/'); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

func applyExtensions(ev *models.Event, ext map[string]interface{}) {
	for uri, val := range ext {
		switch extKey(uri) {
		case "operationDate":
			if t, ok := parseDate(val); ok {
				ev.OperationDate = &t
			}
		case "recordDate":
			if ev.OperationDate == nil {
				if t, ok := parseDate(val); ok {
					ev.OperationDate = &t
				}
			}
		case "materialName":
			if ev.MaterialName == "" {
				ev.MaterialName = asString(val)
			}
		case "materialCode":
			if ev.MaterialCode == "" {
				ev.MaterialCode = asString(val)
			}
		case "vehicleId":
			if ev.VehicleID == "" {
				ev.VehicleID = strings.TrimPrefix(asString(val), vehicleAccountPrefix)
			}
		case "vehicleType", "vehicletype":
			if ev.VehicleType == "" {
				ev.VehicleType = asString(val)
			}
		case "vehicleModel":
			ev.VehicleModel = asString(val)
		case "manufacturer":
			ev.Manufacturer = asString(val)
		case "stockType":
			ev.StockType = asString(val)
		case "operationCategory":
			ev.OperationCategory = asString(val)
		case "separationType":
			ev.SeparationType = asString(val)
		case "customerId":
			ev.CustomerID = asString(val)
		case "serviceLocation":
			if ev.ServiceLocation == "" {
				ev.ServiceLocation = asString(val)
			}
		case "workorderId":
			ev.WorkorderID = asString(val)
		case "faultCode":
			ev.FaultCode = asString(val)
		case "cost", "totalCost":
			if ev.Cost == nil {
				if f, ok := asFloat(val); ok {
					ev.Cost = &f
				}
			}
		case "quantity":
			if f, ok := asFloat(val); ok {
				ev.Quantity = &f
			}
		case "odometer", "km":
			if ev.Odometer == nil {
				if f, ok := asFloat(val); ok {
					ev.Odometer = &f
				}
			}
		case "discount":
			if f, ok := asFloat(val); ok {
				ev.Discount = &f
			}
		}
	}
}

func parseDate(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		// old exporters wrote decimal commas
		f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", "."), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
