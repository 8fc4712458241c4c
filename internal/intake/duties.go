package intake

import (
	"homecare/internal/utils"
	"homecare/pkg/types"
)

var shiftDurations = []int{4, 6, 8, 12, 24}

// dutiesRule covers category 7: nurse visits, nursing duties and
// babysitting over a date range. Exactly one subtype is booked per request.
func dutiesRule() CategoryRule {
	nurseVisit := Filled("nurse_visit_id")

	return CategoryRule{
		Category: types.CategoryDuties,
		Spec: func() ValidationSpec {
			return Merge(
				commonSpec(),
				optionalAddressSpec(),
				ValidationSpec{
					Fields: []FieldRule{
						Field("nurse_visit_id", Integer(), Exists(types.EntityNurseVisit)),
						Field("duty_id", Integer(), Exists(types.EntityDuty)),
						Field("babysitter_id", Integer(), Exists(types.EntityBabysitter)),
						Field("visits_per_day", RequiredIf(nurseVisit), Integer(), Between(1, 4)),
						Field("is_continuous_care", Boolean()),
						Field("duration_hours",
							RequiredUnless(AnyOf(Truthy("is_continuous_care"), nurseVisit)),
							Integer(),
							IntIn(shiftDurations...),
						),
						Field("is_day_shift", RequiredUnless(nurseVisit), Boolean()),
						Field("from_date", Required(), Date()),
						Field("to_date", Required(), Date(), After("from_date")),
					},
					Exclusive: []ExclusiveGroup{
						{Fields: []string{"nurse_visit_id", "duty_id", "babysitter_id"}},
					},
				},
			)
		},
		Map: func(p Payload) *types.ServiceRequest {
			r := mapCommon(p, types.CategoryDuties)
			r.NurseVisitID = p.Int64("nurse_visit_id")
			r.DutyID = p.Int64("duty_id")
			r.BabysitterID = p.Int64("babysitter_id")
			r.IsContinuousCare = utils.BoolPtr(p.Bool("is_continuous_care"))
			r.IsDayShift = p.OptionalBool("is_day_shift")
			r.FromDate = p.Time("from_date")
			r.ToDate = p.Time("to_date")

			if r.NurseVisitID != nil {
				r.VisitsPerDay = p.Int("visits_per_day")
			}

			if r.NurseVisitID == nil && !*r.IsContinuousCare {
				r.DurationHours = p.Int("duration_hours")
			}

			return r
		},
		Price: func(r *types.ServiceRequest) *types.PriceRef {
			switch {
			case r.NurseVisitID != nil:
				return priceRef(types.CategoryDuties, types.EntityNurseVisit, r.NurseVisitID, nil)
			case r.DutyID != nil:
				return priceRef(types.CategoryDuties, types.EntityDuty, r.DutyID, nil)
			}
			return priceRef(types.CategoryDuties, types.EntityBabysitter, r.BabysitterID, nil)
		},
	}
}
