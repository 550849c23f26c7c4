package models

import (
	"github.com/LittleKatyusha/Sapi/validation"
	"github.com/shopspring/decimal"
)

var MetodePembayaran = []string{"CASH", "TRANSFER"}

// Pembayaran is a payment made against a purchase.
type Pembayaran struct {
	Base
	PembelianID  uint            `gorm:"index;not null" json:"id_pembelian"`
	PIDPembelian string          `gorm:"-" json:"pid_pembelian"`
	Nota         string          `gorm:"size:50;index" json:"nota"`
	Tanggal      Date            `json:"tanggal"`
	Jumlah       decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"jumlah"`
	Metode       string          `gorm:"size:10;not null" json:"metode"`
	Keterangan   string          `gorm:"size:255" json:"keterangan"`
}

func (p *Pembayaran) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("id_pembelian", p.PembelianID, v)
	validation.PositiveDecimal("jumlah", p.Jumlah, v)
	validation.OneOf("metode", p.Metode, MetodePembayaran, v)
	validation.NotFuture("tanggal", p.Tanggal.Time, v)
	return v
}

func (p *Pembayaran) ParentID() uint          { return p.PembelianID }
func (p *Pembayaran) SetParentID(id uint)     { p.PembelianID = id }
func (p *Pembayaran) ParentPID() string       { return p.PIDPembelian }
func (p *Pembayaran) SetParentPID(pid string) { p.PIDPembelian = pid }
