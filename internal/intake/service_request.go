package intake

import (
	"homecare/pkg/types"
)

// serviceRequestRule covers category 1: a catalog service delivered at an
// address at a scheduled time.
func serviceRequestRule() CategoryRule {
	return CategoryRule{
		Category: types.CategoryServiceRequest,
		Spec: func() ValidationSpec {
			return Merge(
				commonSpec(),
				addressSpec(Condition{Desc: "a visit is requested", Fn: func(Payload) bool { return true }}),
				ValidationSpec{
					Fields: []FieldRule{
						Field("service_id", Required(), Integer(), Exists(types.EntityService)),
						Field("area_id", Integer(), Exists(types.EntityArea)),
						Field("time_type", In(string(types.TimeTypeFullTime), string(types.TimeTypePartTime))),
						Field("scheduled_time", Date(), NotBeforeNow()),
						Field("ending_time", Date(), After("scheduled_time")),
					},
				},
			)
		},
		Map: func(p Payload) *types.ServiceRequest {
			r := mapCommon(p, types.CategoryServiceRequest)
			r.ServiceID = p.Int64("service_id")
			r.AreaID = p.Int64("area_id")
			r.ScheduledTime = p.Time("scheduled_time")
			r.EndingTime = p.Time("ending_time")

			if t := p.String("time_type"); t != nil {
				timeType := types.TimeType(*t)
				r.TimeType = &timeType
			}

			return r
		},
		Price: func(r *types.ServiceRequest) *types.PriceRef {
			return priceRef(types.CategoryServiceRequest, types.EntityService, r.ServiceID, r.AreaID)
		},
	}
}
