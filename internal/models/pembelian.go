package models

import (
	"github.com/LittleKatyusha/Sapi/internal/pricing"
	"github.com/LittleKatyusha/Sapi/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase kinds; each has its own endpoint family.
const (
	JenisPakan = "pakan"
	JenisKulit = "kulit"
	JenisOVK   = "ovk"
	JenisSapi  = "sapi"
)

var PembelianJenis = []string{JenisPakan, JenisKulit, JenisOVK, JenisSapi}

// Pembelian is a purchase header.
type Pembelian struct {
	Base
	// Nota is unique per purchase kind.
	Nota       string            `gorm:"size:50;not null;index:idx_pembelian_jenis_nota,unique" json:"nota"`
	Jenis      string            `gorm:"size:10;not null;index:idx_pembelian_jenis_nota,unique" json:"jenis"`
	Tanggal    Date              `json:"tanggal"`
	SupplierID uint              `gorm:"index;not null" json:"id_supplier"`
	Supplier   *Supplier         `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	KantorID   uint              `gorm:"index" json:"id_kantor"`
	Catatan    string            `gorm:"type:text" json:"catatan"`
	Lampiran   string            `gorm:"size:255" json:"lampiran"`
	TotalBerat decimal.Decimal   `gorm:"type:numeric(18,3);not null;default:0" json:"total_berat"`
	TotalHarga decimal.Decimal   `gorm:"type:numeric(18,2);not null;default:0" json:"total_harga"`
	Details    []PembelianDetail `gorm:"foreignKey:PembelianID" json:"details,omitempty"`
}

func (p *Pembelian) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("nota", p.Nota, v)
	validation.OneOf("jenis", p.Jenis, PembelianJenis, v)
	validation.RequiredID("id_supplier", p.SupplierID, v)
	validation.NotFuture("tanggal", p.Tanggal.Time, v)
	return v
}

func (p *Pembelian) SetFile(path string) { p.Lampiran = path }

// RecomputeTotals re-sums the header totals from its live detail lines.
func RecomputeTotals(tx *gorm.DB, pembelianID uint) error {
	var details []PembelianDetail
	if err := tx.Where("pembelian_id = ?", pembelianID).Find(&details).Error; err != nil {
		return err
	}
	berat, harga := decimal.Zero, decimal.Zero
	for _, d := range details {
		berat = berat.Add(d.Berat)
		harga = harga.Add(d.TotalHarga)
	}
	return tx.Model(&Pembelian{}).Where("id = ?", pembelianID).
		Updates(map[string]any{"total_berat": berat, "total_harga": harga}).Error
}

// PembelianDetail is one line of a purchase.
type PembelianDetail struct {
	Base
	PembelianID   uint            `gorm:"index;not null" json:"id_pembelian"`
	PIDPembelian  string          `gorm:"-" json:"pid_pembelian"`
	Nota          string          `gorm:"size:50;index" json:"nota"`
	Item          string          `gorm:"size:150;not null" json:"item"`
	KlasifikasiID uint            `gorm:"index" json:"id_klasifikasi"`
	Harga         decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"harga"`
	Persentase    decimal.Decimal `gorm:"type:numeric(7,3);not null;default:0" json:"persentase"`
	HPP           decimal.Decimal `gorm:"column:hpp;type:numeric(18,2);not null;default:0" json:"hpp"`
	Berat         decimal.Decimal `gorm:"type:numeric(18,3);not null;default:0" json:"berat"`
	TotalHarga    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_harga"`
	Keterangan    string          `gorm:"size:255" json:"keterangan"`
}

// Recalculate derives hpp and total_harga from the raw inputs.
func (d *PembelianDetail) Recalculate() {
	d.HPP, d.TotalHarga = pricing.Line(d.Harga, d.Persentase, d.Berat)
}

// BeforeSave keeps derived columns consistent whatever the client sent.
func (d *PembelianDetail) BeforeSave(_ *gorm.DB) error {
	d.Recalculate()
	return nil
}

func (d *PembelianDetail) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("id_pembelian", d.PembelianID, v)
	validation.Required("item", d.Item, v)
	validation.PositiveDecimal("harga", d.Harga, v)
	validation.PositiveDecimal("berat", d.Berat, v)
	validation.RangeDecimal("persentase", d.Persentase, decimal.Zero, decimal.NewFromInt(100), v)
	return v
}

func (d *PembelianDetail) ParentID() uint          { return d.PembelianID }
func (d *PembelianDetail) SetParentID(id uint)     { d.PembelianID = id }
func (d *PembelianDetail) ParentPID() string       { return d.PIDPembelian }
func (d *PembelianDetail) SetParentPID(pid string) { d.PIDPembelian = pid }
