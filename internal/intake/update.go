package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"homecare/internal/utils"
	"homecare/pkg/types"
)

// columnKeys names the payload key of record columns stored under a
// different name.
var columnKeys = map[string]string{
	"nurse_gender_preference": "nurse_gender",
}

// CheckUpdate validates request as it would look with fields applied, using
// the rules of the request's own category. Clock and lookup constraints only
// run for the columns in fields. Violations are returned as
// ValidationErrors keyed by column name.
func (v *Validator) CheckUpdate(ctx context.Context, request *types.ServiceRequest, fields map[string]any) error {
	rule, err := Resolve(int(request.CategoryID))
	if err != nil {
		return err
	}

	merged := utils.StructToMap(request)
	for column, value := range fields {
		merged[column] = value
	}

	p, err := recordPayload(merged)
	if err != nil {
		return err
	}

	changed := make(map[string]bool, len(fields))
	for column := range fields {
		changed[payloadKey(column)] = true
	}

	errs, err := v.validateChanged(ctx, rule.Spec(), p, changed)
	if err != nil {
		return err
	}

	if len(errs) == 0 {
		return nil
	}

	for column, key := range columnKeys {
		if messages, ok := errs[key]; ok {
			delete(errs, key)
			errs[column] = messages
		}
	}

	return errs
}

// recordPayload re-encodes column values into the shapes a submitted JSON
// payload has, so stored and patched values go through the same rules.
func recordPayload(columns map[string]any) (Payload, error) {
	raw, err := json.Marshal(columns)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request columns: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var p Payload
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode request columns: %w", err)
	}

	for column, key := range columnKeys {
		if value, ok := p[column]; ok {
			delete(p, column)
			p[key] = value
		}
	}

	return p, nil
}

func payloadKey(column string) string {
	if key, ok := columnKeys[column]; ok {
		return key
	}
	return column
}
