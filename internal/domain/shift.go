package domain

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire format of every date-only value.
const DateLayout = "2006-01-02"

type ShiftType string

const (
	ShiftMorning   ShiftType = "Morning"
	ShiftAfternoon ShiftType = "Afternoon"
)

func (t ShiftType) Valid() bool {
	return t == ShiftMorning || t == ShiftAfternoon
}

// Shift is one employee's shift on one calendar day. StartDate and EndDate
// are equal for every record written by the scheduler; older records may
// still carry a multi-day range.
type Shift struct {
	ID         string    `json:"id" bson:"_id"`
	EmployeeID string    `json:"employeeId" bson:"employeeId"`
	StartDate  time.Time `json:"startDate" bson:"startDate"`
	EndDate    time.Time `json:"endDate" bson:"endDate"`
	ShiftType  ShiftType `json:"shiftType" bson:"shiftType"`
	ShiftStart string    `json:"shiftStart" bson:"shiftStart"`
	ShiftEnd   string    `json:"shiftEnd" bson:"shiftEnd"`
	Notes      string    `json:"notes" bson:"notes"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	Version    int32     `json:"-" bson:"version"`
}

// shiftJSON renders the date fields in DateLayout. The embedded alias keeps
// every other field and drops the methods below.
type shiftJSON struct {
	shift
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type shift Shift

func (s Shift) MarshalJSON() ([]byte, error) {
	return json.Marshal(shiftJSON{
		shift:     shift(s),
		StartDate: s.StartDate.Format(DateLayout),
		EndDate:   s.EndDate.Format(DateLayout),
	})
}

func (s *Shift) UnmarshalJSON(data []byte) error {
	aux := struct {
		*shift
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}{shift: (*shift)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if s.StartDate, err = parseDate(aux.StartDate); err != nil {
		return err
	}
	if s.EndDate, err = parseDate(aux.EndDate); err != nil {
		return err
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, value)
}

type EmployeeSummary struct {
	ID    string `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
}

// ShiftDetail is a shift with the display fields of its employee joined in.
// Employee is nil when the referenced user no longer exists.
type ShiftDetail struct {
	Shift
	Employee *EmployeeSummary `json:"employee"`
}

// MarshalJSON shadows the promoted Shift method, which has no employee field.
func (d ShiftDetail) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		shiftJSON
		Employee *EmployeeSummary `json:"employee"`
	}{
		shiftJSON: shiftJSON{
			shift:     shift(d.Shift),
			StartDate: d.StartDate.Format(DateLayout),
			EndDate:   d.EndDate.Format(DateLayout),
		},
		Employee: d.Employee,
	})
}

func (d *ShiftDetail) UnmarshalJSON(data []byte) error {
	if err := d.Shift.UnmarshalJSON(data); err != nil {
		return err
	}

	var aux struct {
		Employee *EmployeeSummary `json:"employee"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.Employee = aux.Employee
	return nil
}

// ShiftFilter selects shift records. Zero-valued fields do not constrain
// the match.
type ShiftFilter struct {
	ID          string
	ExcludeID   string
	EmployeeIDs []string
	Date        time.Time
}

// ShiftIntent is the desired state handed to the scheduler on create.
type ShiftIntent struct {
	EmployeeIDs []string
	StartDate   string
	EndDate     string
	ShiftType   ShiftType
	ShiftStart  string
	ShiftEnd    string
	Notes       string
}

// ShiftPatch is the update payload. Nil fields keep the anchor's values.
type ShiftPatch struct {
	EmployeeIDs []string
	StartDate   *string
	EndDate     *string
	ShiftType   *ShiftType
	ShiftStart  *string
	ShiftEnd    *string
	Notes       *string
}

// Merge fills every field the patch leaves out from the anchor record and
// returns the resulting intent. Only the whitelisted fields above are read.
func (p ShiftPatch) Merge(anchor *Shift) ShiftIntent {
	intent := ShiftIntent{
		EmployeeIDs: []string{anchor.EmployeeID},
		StartDate:   anchor.StartDate.Format(DateLayout),
		EndDate:     anchor.EndDate.Format(DateLayout),
		ShiftType:   anchor.ShiftType,
		ShiftStart:  anchor.ShiftStart,
		ShiftEnd:    anchor.ShiftEnd,
		Notes:       anchor.Notes,
	}

	if len(p.EmployeeIDs) > 0 {
		intent.EmployeeIDs = p.EmployeeIDs
	}
	if p.StartDate != nil {
		intent.StartDate = *p.StartDate
		// a new start without an end means a single day
		intent.EndDate = *p.StartDate
	}
	if p.EndDate != nil {
		intent.EndDate = *p.EndDate
	}
	if p.ShiftType != nil {
		intent.ShiftType = *p.ShiftType
	}
	if p.ShiftStart != nil {
		intent.ShiftStart = *p.ShiftStart
	}
	if p.ShiftEnd != nil {
		intent.ShiftEnd = *p.ShiftEnd
	}
	if p.Notes != nil {
		intent.Notes = *p.Notes
	}

	return intent
}
