package extract

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/carebridge/carebridge/internal/domain/schedule"
	"github.com/carebridge/carebridge/internal/domain/steps"
)

const dateLayout = "2006-01-02"

// wirePayload mirrors the JSON the model is prompted to produce. The
// pointer slices distinguish a missing key from an empty list.
type wirePayload struct {
	Checklist *[]wireChecklistItem `json:"checklist"`
	Plan      *[]wirePlanItem      `json:"plan"`
}

type wireChecklistItem struct {
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type wirePlanItem struct {
	Description   string   `json:"description"`
	PatientID     string   `json:"patient_id"`
	StartDate     string   `json:"start_date"`
	Duration      int      `json:"duration"`
	Frequency     string   `json:"frequency"`
	SpecificTimes []string `json:"specific_times"`
	IntervalHours int      `json:"interval_hours"`
	TimesPerDay   int      `json:"times_per_day"`
}

// parsePayload converts raw model output into a step payload. The
// patient id from the queue message is authoritative and overrides
// whatever the model put in its plan items.
func parsePayload(raw []byte, patientID string) (*steps.Payload, error) {
	var wire wirePayload
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if wire.Checklist == nil || wire.Plan == nil {
		return nil, fmt.Errorf("%w: checklist and plan are required", ErrBadPayload)
	}

	payload := &steps.Payload{
		Checklist: make([]steps.ChecklistItem, 0, len(*wire.Checklist)),
		Plan:      make([]steps.PlanItem, 0, len(*wire.Plan)),
	}

	for _, item := range *wire.Checklist {
		priority := steps.Priority(item.Priority)
		switch priority {
		case steps.PriorityHigh, steps.PriorityMedium, steps.PriorityLow:
		default:
			return nil, fmt.Errorf("%w: unknown priority %q", ErrBadPayload, item.Priority)
		}
		if item.Description == "" {
			return nil, fmt.Errorf("%w: checklist task without description", ErrBadPayload)
		}
		payload.Checklist = append(payload.Checklist, steps.ChecklistItem{
			Description: item.Description,
			Priority:    priority,
		})
	}

	for _, item := range *wire.Plan {
		if item.Description == "" {
			return nil, fmt.Errorf("%w: plan task without description", ErrBadPayload)
		}

		startDate := time.Now().UTC()
		if item.StartDate != "" {
			parsed, err := time.Parse(dateLayout, item.StartDate)
			if err != nil {
				return nil, fmt.Errorf("%w: bad start_date %q", ErrBadPayload, item.StartDate)
			}
			startDate = parsed
		}

		def := schedule.Definition{
			Type:          schedule.FrequencyType(item.Frequency),
			Duration:      item.Duration,
			SpecificTimes: item.SpecificTimes,
			IntervalHours: item.IntervalHours,
			TimesPerDay:   item.TimesPerDay,
		}
		if err := schedule.ValidateDefinition(def); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}

		payload.Plan = append(payload.Plan, steps.PlanItem{
			Description: item.Description,
			PatientID:   patientID,
			StartDate:   startDate,
			Schedule:    def,
		})
	}

	return payload, nil
}
