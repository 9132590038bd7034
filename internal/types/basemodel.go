package types

import "time"

// BaseModel is a base model for all domain models that need to be persisted
// in the database. Any changes to this model should be reflected in the
// database schema by running migrations.
type BaseModel struct {
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func GetDefaultBaseModel(now time.Time) BaseModel {
	now = now.UTC()
	return BaseModel{
		CreatedAt: now,
		UpdatedAt: now,
	}
}
