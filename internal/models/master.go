package models

import (
	"github.com/LittleKatyusha/Sapi/validation"
	"gorm.io/datatypes"
)

// Supplier types.
var SupplierJenis = []string{"pakan", "kulit", "ovk", "sapi", "umum"}

// Supplier is a vendor the offices buy from.
type Supplier struct {
	Base
	Kode    string `gorm:"size:20;uniqueIndex" json:"kode"`
	Nama    string `gorm:"size:150;not null" json:"nama"`
	Jenis   string `gorm:"size:10;index" json:"jenis"`
	Alamat  string `gorm:"size:255" json:"alamat"`
	Telepon string `gorm:"size:30" json:"telepon"`
	Kontak  string `gorm:"size:100" json:"kontak"`
}

func (s *Supplier) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("kode", s.Kode, v)
	validation.Required("nama", s.Nama, v)
	if s.Jenis != "" {
		validation.OneOf("jenis", s.Jenis, SupplierJenis, v)
	}
	return v
}

// Kantor is a regional office; purchases and employees belong to one.
type Kantor struct {
	Base
	Kode    string `gorm:"size:20;uniqueIndex" json:"kode"`
	Nama    string `gorm:"size:150;not null" json:"nama"`
	Alamat  string `gorm:"size:255" json:"alamat"`
	Telepon string `gorm:"size:30" json:"telepon"`
}

func (k *Kantor) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("kode", k.Kode, v)
	validation.Required("nama", k.Nama, v)
	return v
}

// Parameter is one entry of a classification list (cattle class, feed type,
// unit, ...), grouped by Grup.
type Parameter struct {
	Base
	Grup    string            `gorm:"size:50;not null;index:idx_parameter_grup_kode,unique" json:"grup"`
	Kode    string            `gorm:"size:50;not null;index:idx_parameter_grup_kode,unique" json:"kode"`
	Nama    string            `gorm:"size:150;not null" json:"nama"`
	Nilai   string            `gorm:"size:255" json:"nilai"`
	Urutan  int               `gorm:"default:0" json:"urutan"`
	Atribut datatypes.JSONMap `json:"atribut,omitempty"`
}

func (p *Parameter) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("grup", p.Grup, v)
	validation.Required("kode", p.Kode, v)
	validation.Required("nama", p.Nama, v)
	return v
}
