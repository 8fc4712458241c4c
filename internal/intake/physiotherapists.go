package intake

import (
	"homecare/internal/utils"
	"homecare/pkg/types"
)

// physiotherapistsRule covers category 5: a monthly physiotherapy plan,
// optionally with machines brought to the patient.
func physiotherapistsRule() CategoryRule {
	return CategoryRule{
		Category: types.CategoryPhysiotherapists,
		Spec: func() ValidationSpec {
			return Merge(
				commonSpec(),
				optionalAddressSpec(),
				ValidationSpec{
					Fields: []FieldRule{
						Field("physiotherapist_id", Required(), Integer(), Exists(types.EntityPhysiotherapist)),
						Field("sessions_per_month", Required(), Integer(), Min(1)),
						Field("machines_included", Boolean()),
						Field("physio_machines", RequiredIf(Truthy("machines_included")), IntList(), EachExists(types.EntityPhysioMachine)),
						Field("from_date", Date()),
						Field("to_date", Date(), After("from_date")),
						Field("pdf_file", FilePath()),
					},
				},
			)
		},
		Map: func(p Payload) *types.ServiceRequest {
			r := mapCommon(p, types.CategoryPhysiotherapists)
			r.PhysiotherapistID = p.Int64("physiotherapist_id")
			r.SessionsPerMonth = p.Int("sessions_per_month")
			r.PhysioMachines = NormalizeIntList(p["physio_machines"])
			r.MachinesIncluded = utils.BoolPtr(p.Bool("machines_included") || len(r.PhysioMachines) > 0)
			r.FromDate = p.Time("from_date")
			r.ToDate = p.Time("to_date")

			if pdf := singleFile(p["pdf_file"]); pdf != nil {
				r.RequestDetailsFiles = []string{*pdf}
			}

			return r
		},
		Price: func(r *types.ServiceRequest) *types.PriceRef {
			return priceRef(types.CategoryPhysiotherapists, types.EntityPhysiotherapist, r.PhysiotherapistID, nil)
		},
	}
}
