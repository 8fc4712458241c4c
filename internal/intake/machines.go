package intake

import (
	"homecare/pkg/types"
)

// machinesRule covers category 4: equipment rental, priced per area.
func machinesRule() CategoryRule {
	return CategoryRule{
		Category: types.CategoryMachines,
		Spec: func() ValidationSpec {
			return Merge(
				commonSpec(),
				optionalAddressSpec(),
				ValidationSpec{
					Fields: []FieldRule{
						Field("machine_id", Required(), Integer(), Exists(types.EntityMachine)),
						Field("area_id", Required(), Integer(), Exists(types.EntityArea)),
						Field("from_date", Date()),
						Field("to_date", Date(), After("from_date")),
					},
				},
			)
		},
		Map: func(p Payload) *types.ServiceRequest {
			r := mapCommon(p, types.CategoryMachines)
			r.MachineID = p.Int64("machine_id")
			r.AreaID = p.Int64("area_id")
			r.FromDate = p.Time("from_date")
			r.ToDate = p.Time("to_date")
			return r
		},
		Price: func(r *types.ServiceRequest) *types.PriceRef {
			return priceRef(types.CategoryMachines, types.EntityMachine, r.MachineID, r.AreaID)
		},
	}
}
