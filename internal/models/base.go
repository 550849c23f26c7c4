// Package models holds the persisted procurement entities.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the identifiers shared by every entity: the database id, the
// public UUID (pubid) and the encrypted reference token (pid). PID is never
// stored; handlers fill it from the id before responding.
type Base struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PubID     string         `gorm:"size:36;uniqueIndex" json:"pubid"`
	PID       string         `gorm:"-" json:"pid"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the public id.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.PubID == "" {
		b.PubID = uuid.NewString()
	}
	return nil
}

func (b *Base) GetID() uint       { return b.ID }
func (b *Base) SetID(id uint)     { b.ID = id }
func (b *Base) SetPID(pid string) { b.PID = pid }

// EntityID and EntityPID let the models be used as typed client records.
func (b Base) EntityID() int64   { return int64(b.ID) }
func (b Base) EntityPID() string { return b.PID }

// Referenced is implemented by every model embedding Base.
type Referenced interface {
	GetID() uint
	SetID(id uint)
	SetPID(pid string)
}

// Child is implemented by records that belong to a purchase header.
type Child interface {
	ParentID() uint
	SetParentID(id uint)
	SetParentPID(pid string)
	ParentPID() string
}

// Uploadable is implemented by records carrying one uploaded file.
type Uploadable interface {
	SetFile(path string)
}
