package intake

import (
	"homecare/pkg/types"
)

// raysRule covers category 3: imaging. Referral documents are PDF-only;
// the upload boundary enforces the content type.
func raysRule() CategoryRule {
	return CategoryRule{
		Category: types.CategoryRays,
		Spec: func() ValidationSpec {
			return Merge(
				commonSpec(),
				optionalAddressSpec(),
				ValidationSpec{
					Fields: []FieldRule{
						Field("ray_id", Required(), Integer(), Exists(types.EntityRay)),
						Field("area_id", Integer(), Exists(types.EntityArea)),
						Field("request_details_files", FileList(maxDetailFiles)),
					},
				},
			)
		},
		Map: func(p Payload) *types.ServiceRequest {
			r := mapCommon(p, types.CategoryRays)
			r.RayID = p.Int64("ray_id")
			r.AreaID = p.Int64("area_id")
			r.RequestDetailsFiles = NormalizeFileList(p["request_details_files"])
			return r
		},
		Price: func(r *types.ServiceRequest) *types.PriceRef {
			return priceRef(types.CategoryRays, types.EntityRay, r.RayID, r.AreaID)
		},
	}
}
