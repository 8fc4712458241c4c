package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestStatusSubmitted  RequestStatus = "submitted"
	RequestStatusAssigned   RequestStatus = "assigned"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusSubmitted, RequestStatusAssigned, RequestStatusInProgress,
		RequestStatusCompleted, RequestStatusCancelled:
		return true
	}

	return false
}

// IsTerminal reports whether no further transition may leave the status.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// HasNurse reports whether a request in this status must carry a nurse.
func (s RequestStatus) HasNurse() bool {
	return s == RequestStatusAssigned || s == RequestStatusInProgress || s == RequestStatusCompleted
}

type NurseGender string

const (
	NurseGenderMale   NurseGender = "male"
	NurseGenderFemale NurseGender = "female"
	NurseGenderAny    NurseGender = "any"
	NurseGenderNone   NurseGender = "none"
)

type TimeType string

const (
	TimeTypeFullTime TimeType = "full-time"
	TimeTypePartTime TimeType = "part-time"
)

type AppointmentType string

const (
	AppointmentCheckAtHome   AppointmentType = "check_at_home"
	AppointmentCheckAtClinic AppointmentType = "check_at_clinic"
	AppointmentVideoCall     AppointmentType = "video_call"
)

// RequestAddress holds the structured address a visit is delivered to.
type RequestAddress struct {
	Location        *string  `db:"location" json:"location"`
	City            *string  `db:"city" json:"city"`
	District        *string  `db:"district" json:"district"`
	Street          *string  `db:"street" json:"street"`
	BuildingNumber  *string  `db:"building_number" json:"buildingNumber"`
	FloorNumber     *string  `db:"floor_number" json:"floorNumber"`
	ApartmentNumber *string  `db:"apartment_number" json:"apartmentNumber"`
	Latitude        *float64 `db:"latitude" json:"latitude"`
	Longitude       *float64 `db:"longitude" json:"longitude"`
}

// ServiceRequest is the canonical request record every category converges into.
// Downstream pricing, assignment and notification only ever see this shape.
type ServiceRequest struct {
	ID         string        `db:"id" json:"id"`
	UserID     string        `db:"user_id" json:"userId"`
	CategoryID Category      `db:"category_id" json:"categoryId"`
	Status     RequestStatus `db:"status" json:"status"`

	FullName              *string      `db:"full_name" json:"fullName"`
	PhoneNumber           *string      `db:"phone_number" json:"phoneNumber"`
	ProblemDescription    *string      `db:"problem_description" json:"problemDescription"`
	NurseGenderPreference *NurseGender `db:"nurse_gender_preference" json:"nurseGenderPreference"`
	UseSavedAddress       bool         `db:"use_saved_address" json:"useSavedAddress"`
	AdditionalInformation *string      `db:"additional_information" json:"additionalInformation"`

	RequestAddress

	// category 1
	ServiceID     *int64     `db:"service_id" json:"serviceId"`
	TimeType      *TimeType  `db:"time_type" json:"timeType"`
	ScheduledTime *time.Time `db:"scheduled_time" json:"scheduledTime"`
	EndingTime    *time.Time `db:"ending_time" json:"endingTime"`

	// shared by categories 1-4
	AreaID *int64 `db:"area_id" json:"areaId"`

	// category 2
	TestPackageID        *int64  `db:"test_package_id" json:"testPackageId"`
	TestID               *int64  `db:"test_id" json:"testId"`
	RequestWithInsurance *bool   `db:"request_with_insurance" json:"requestWithInsurance"`
	AttachFrontFace      *string `db:"attach_front_face" json:"attachFrontFace"`
	AttachBackFace       *string `db:"attach_back_face" json:"attachBackFace"`

	// categories 2, 3, 5, 8
	RequestDetailsFiles []string `db:"request_details_files" json:"requestDetailsFiles"`

	// category 3
	RayID *int64 `db:"ray_id" json:"rayId"`

	// category 4
	MachineID *int64 `db:"machine_id" json:"machineId"`

	// categories 4, 5, 7
	FromDate *time.Time `db:"from_date" json:"fromDate"`
	ToDate   *time.Time `db:"to_date" json:"toDate"`

	// category 5
	PhysiotherapistID *int64  `db:"physiotherapist_id" json:"physiotherapistId"`
	SessionsPerMonth  *int    `db:"sessions_per_month" json:"sessionsPerMonth"`
	MachinesIncluded  *bool   `db:"machines_included" json:"machinesIncluded"`
	PhysioMachines    []int64 `db:"physio_machines" json:"physioMachines"`

	// category 7
	NurseVisitID     *int64 `db:"nurse_visit_id" json:"nurseVisitId"`
	DutyID           *int64 `db:"duty_id" json:"dutyId"`
	BabysitterID     *int64 `db:"babysitter_id" json:"babysitterId"`
	VisitsPerDay     *int   `db:"visits_per_day" json:"visitsPerDay"`
	DurationHours    *int   `db:"duration_hours" json:"durationHours"`
	IsContinuousCare *bool  `db:"is_continuous_care" json:"isContinuousCare"`
	IsDayShift       *bool  `db:"is_day_shift" json:"isDayShift"`

	// category 8
	DoctorID        *int64           `db:"doctor_id" json:"doctorId"`
	SlotID          *int64           `db:"slot_id" json:"slotId"`
	AppointmentType *AppointmentType `db:"appointment_type" json:"appointmentType"`

	TotalPrice         *float64 `db:"total_price" json:"totalPrice"`
	DiscountPercentage *float64 `db:"discount_percentage" json:"discountPercentage"`
	DiscountedPrice    *float64 `db:"discounted_price" json:"discountedPrice"`

	NurseID *string `db:"nurse_id" json:"nurseId"`

	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// CategoryColumns lists the category-specific columns each category owns.
// A record filed under one category must leave every other category's
// columns null.
var CategoryColumns = map[Category][]string{
	CategoryServiceRequest: {"service_id", "area_id", "time_type", "scheduled_time", "ending_time"},
	CategoryTests: {
		"test_package_id", "test_id", "area_id", "request_with_insurance",
		"attach_front_face", "attach_back_face", "request_details_files",
	},
	CategoryRays:     {"ray_id", "area_id", "request_details_files"},
	CategoryMachines: {"machine_id", "area_id", "from_date", "to_date"},
	CategoryPhysiotherapists: {
		"physiotherapist_id", "sessions_per_month", "machines_included",
		"physio_machines", "from_date", "to_date", "request_details_files",
	},
	CategoryOffers: {},
	CategoryDuties: {
		"nurse_visit_id", "duty_id", "babysitter_id", "visits_per_day", "duration_hours",
		"is_continuous_care", "is_day_shift", "from_date", "to_date",
	},
	CategoryDoctors: {"doctor_id", "slot_id", "appointment_type", "request_details_files"},
}

// ForeignColumns returns the category-specific columns that must be null for
// a record filed under c.
func ForeignColumns(c Category) []string {
	owned := make(map[string]bool)
	for _, col := range CategoryColumns[c] {
		owned[col] = true
	}

	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, other := range Categories() {
		for _, col := range CategoryColumns[other] {
			if owned[col] || seen[col] {
				continue
			}
			seen[col] = true
			out = append(out, col)
		}
	}

	return out
}

// ApplyDiscount sets the discount percentage and recomputes the discounted
// price as max(0, total * (1 - pct/100)), rounded to cents. Without a total
// price only the percentage is recorded.
func (r *ServiceRequest) ApplyDiscount(pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("discount percentage %v out of range 0-100", pct)
	}

	r.DiscountPercentage = &pct
	if r.TotalPrice == nil {
		r.DiscountedPrice = nil
		return nil
	}

	discounted := DiscountedPrice(*r.TotalPrice, pct)
	r.DiscountedPrice = &discounted

	return nil
}

// SetTotalPrice records the base price and re-derives the discounted price
// from whatever discount is already on the record.
func (r *ServiceRequest) SetTotalPrice(total float64) {
	r.TotalPrice = &total

	pct := 0.0
	if r.DiscountPercentage != nil {
		pct = *r.DiscountPercentage
	}

	discounted := DiscountedPrice(total, pct)
	r.DiscountedPrice = &discounted
}

// DiscountedPrice computes total * (1 - pct/100), never returning less than zero.
func DiscountedPrice(total, pct float64) float64 {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100)))
	price := decimal.NewFromFloat(total).Mul(factor).Round(2)
	if price.IsNegative() {
		return 0
	}

	out, _ := price.Float64()
	return out
}

type RequestEventType string

const (
	RequestEventCreated         RequestEventType = "created"
	RequestEventStatusChanged   RequestEventType = "status_changed"
	RequestEventNurseAssigned   RequestEventType = "nurse_assigned"
	RequestEventDiscountApplied RequestEventType = "discount_applied"
	RequestEventDeleted         RequestEventType = "deleted"
	RequestEventRestored        RequestEventType = "restored"
)

// RequestEvent is an outbox row consumed by the notification delivery workers.
type RequestEvent struct {
	ID        string           `db:"id"`
	RequestID string           `db:"request_id"`
	UserID    string           `db:"user_id"`
	EventType RequestEventType `db:"event_type"`
	Status    RequestStatus    `db:"status"`
	Payload   []byte           `db:"payload"`
	CreatedAt time.Time        `db:"created_at"`
}
