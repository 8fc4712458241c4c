package store

import (
	"context"
	"fmt"

	"homecare/pkg/types"

	sq "github.com/Masterminds/squirrel"
)

// lookupTables maps each referenced entity to its catalog table.
var lookupTables = map[types.Entity]string{
	types.EntityService:         "homecare.services",
	types.EntityArea:            "homecare.areas",
	types.EntityTestPackage:     "homecare.test_packages",
	types.EntityTest:            "homecare.lab_tests",
	types.EntityRay:             "homecare.rays",
	types.EntityMachine:         "homecare.machines",
	types.EntityPhysiotherapist: "homecare.physiotherapists",
	types.EntityPhysioMachine:   "homecare.physio_machines",
	types.EntityNurseVisit:      "homecare.nurse_visits",
	types.EntityDuty:            "homecare.duties",
	types.EntityBabysitter:      "homecare.babysitters",
	types.EntityDoctor:          "homecare.doctors",
	types.EntitySlot:            "homecare.doctor_slots",
}

type LookupRepository struct {
	db DB
}

func NewLookupRepository(db DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// Exists reports whether id resolves in the entity's catalog table.
func (r *LookupRepository) Exists(ctx context.Context, entity types.Entity, id int64) (bool, error) {
	table, ok := lookupTables[entity]
	if !ok {
		return false, fmt.Errorf("no lookup table for entity %q", entity)
	}

	query, args, err := psql().
		Select("1").
		From(table).
		Where(sq.Eq{"id": id}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate %s lookup query: %w", entity, err)
	}

	var exists bool
	err = r.db.QueryRow(ctx, query, args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up %s %d: %w", entity, id, err)
	}

	return exists, nil
}
