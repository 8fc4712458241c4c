package intake

import (
	"homecare/pkg/types"
)

var appointmentTypes = []string{
	string(types.AppointmentCheckAtHome),
	string(types.AppointmentCheckAtClinic),
	string(types.AppointmentVideoCall),
}

// doctorsRule covers category 8: a doctor appointment in a bookable slot.
// Home checks need an address like any other visit.
func doctorsRule() CategoryRule {
	return CategoryRule{
		Category: types.CategoryDoctors,
		Spec: func() ValidationSpec {
			return Merge(
				commonSpec(),
				addressSpec(Equals("appointment_type", string(types.AppointmentCheckAtHome))),
				ValidationSpec{
					Fields: []FieldRule{
						Field("doctor_id", Required(), Integer(), Exists(types.EntityDoctor)),
						Field("slot_id", Required(), Integer(), Exists(types.EntitySlot)),
						Field("appointment_type", Required(), In(appointmentTypes...)),
						Field("request_details_files", FileList(maxDetailFiles)),
					},
				},
			)
		},
		Map: func(p Payload) *types.ServiceRequest {
			r := mapCommon(p, types.CategoryDoctors)
			r.DoctorID = p.Int64("doctor_id")
			r.SlotID = p.Int64("slot_id")
			r.RequestDetailsFiles = NormalizeFileList(p["request_details_files"])

			if a := p.String("appointment_type"); a != nil {
				appointment := types.AppointmentType(*a)
				r.AppointmentType = &appointment
			}

			return r
		},
		Price: func(r *types.ServiceRequest) *types.PriceRef {
			return priceRef(types.CategoryDoctors, types.EntityDoctor, r.DoctorID, nil)
		},
	}
}
