package models

import "github.com/LittleKatyusha/Sapi/validation"

// Pegawai is an employee record.
type Pegawai struct {
	Base
	NIK          string `gorm:"size:30;uniqueIndex" json:"nik"`
	Nama         string `gorm:"size:150;not null" json:"nama"`
	Jabatan      string `gorm:"size:100" json:"jabatan"`
	KantorID     uint   `gorm:"index" json:"id_kantor"`
	Telepon      string `gorm:"size:30" json:"telepon"`
	Email        string `gorm:"size:150" json:"email"`
	TanggalMasuk Date   `json:"tanggal_masuk"`
	Foto         string `gorm:"size:255" json:"foto"`
	Aktif        bool   `gorm:"default:true" json:"aktif"`
}

func (p *Pegawai) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("nik", p.NIK, v)
	validation.Required("nama", p.Nama, v)
	validation.NotFuture("tanggal_masuk", p.TanggalMasuk.Time, v)
	return v
}

func (p *Pegawai) SetFile(path string) { p.Foto = path }
