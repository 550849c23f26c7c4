package handlers

import (
	"errors"

	"github.com/LittleKatyusha/Sapi/internal/datatable"
	"github.com/LittleKatyusha/Sapi/internal/models"
	"github.com/LittleKatyusha/Sapi/internal/pid"
	"gorm.io/gorm"
)

// Mount pairs an endpoint set with the path it is served under and the
// permission resource guarding it.
type Mount struct {
	Path       string // e.g. "pembelian/ovk"
	Permission string // e.g. "pembelian"
	Endpoints  Endpoints
}

// Resources builds every resource family of the API.
func Resources(db *gorm.DB, pids *pid.Codec, uploads *Uploads) []Mount {
	mounts := []Mount{
		{"master/supplier", "master", NewSupplierResource(db, pids)},
		{"master/kantor", "master", NewKantorResource(db, pids)},
		{"master/parameter", "master", NewParameterResource(db, pids)},
	}
	for _, jenis := range models.PembelianJenis {
		mounts = append(mounts, Mount{"pembelian/" + jenis, "pembelian", NewPembelianResource(db, pids, jenis, uploads)})
	}
	return append(mounts,
		Mount{"pembelian/detail", "pembelian", NewDetailResource(db, pids)},
		Mount{"pembayaran", "pembayaran", NewPembayaranResource(db, pids)},
		Mount{"hr/pegawai", "hr", NewPegawaiResource(db, pids, uploads)},
	)
}

func NewSupplierResource(db *gorm.DB, pids *pid.Codec) *Resource[models.Supplier, *models.Supplier] {
	return NewResource[models.Supplier](db, pids, Options[models.Supplier]{
		Table: datatable.Columns{
			Search:  []string{"kode", "nama", "alamat", "telepon"},
			Sort:    sortable("id", "kode", "nama", "jenis"),
			Filters: map[string]string{"jenis": "jenis"},
		},
		UniqueField: "kode",
	})
}

func NewKantorResource(db *gorm.DB, pids *pid.Codec) *Resource[models.Kantor, *models.Kantor] {
	return NewResource[models.Kantor](db, pids, Options[models.Kantor]{
		Table: datatable.Columns{
			Search: []string{"kode", "nama", "alamat"},
			Sort:   sortable("id", "kode", "nama"),
		},
		UniqueField: "kode",
	})
}

func NewParameterResource(db *gorm.DB, pids *pid.Codec) *Resource[models.Parameter, *models.Parameter] {
	return NewResource[models.Parameter](db, pids, Options[models.Parameter]{
		Table: datatable.Columns{
			Search:       []string{"kode", "nama", "nilai"},
			Sort:         sortable("id", "grup", "kode", "nama", "urutan"),
			Filters:      map[string]string{"grup": "grup"},
			DefaultOrder: "grup ASC, urutan ASC",
		},
		UniqueField: "kode",
	})
}

// NewPembelianResource serves the purchase headers of one kind.
func NewPembelianResource(db *gorm.DB, pids *pid.Codec, jenis string, uploads *Uploads) *Resource[models.Pembelian, *models.Pembelian] {
	return NewResource[models.Pembelian](db, pids, Options[models.Pembelian]{
		Table: datatable.Columns{
			Search: []string{
				"nota",
				"catatan",
				"supplier_id IN (SELECT id FROM suppliers WHERE LOWER(nama) LIKE ?)",
			},
			Sort: map[string]string{
				"id": "id", "nota": "nota", "tanggal": "tanggal",
				"total_berat": "total_berat", "total_harga": "total_harga",
			},
			Filters: map[string]string{
				"id_supplier": "supplier_id",
				"id_kantor":   "kantor_id",
				"tanggal":     "tanggal",
			},
			DefaultOrder: "tanggal DESC, id DESC",
		},
		Scope:   func(tx *gorm.DB) *gorm.DB { return tx.Where("jenis = ?", jenis) },
		Preload: []string{"Supplier"},
		Prepare: func(tx *gorm.DB, p *models.Pembelian, _ bool) error {
			p.Jenis = jenis
			if p.SupplierID == 0 {
				return nil
			}
			var n int64
			if err := tx.Model(&models.Supplier{}).Where("id = ?", p.SupplierID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return Invalid("id_supplier", "invalid_reference")
			}
			return nil
		},
		AfterWrite: func(tx *gorm.DB, p *models.Pembelian) error {
			if p.DeletedAt.Valid {
				return nil
			}
			return models.RecomputeTotals(tx, p.ID)
		},
		BeforeDelete: func(tx *gorm.DB, p *models.Pembelian) error {
			if err := tx.Where("pembelian_id = ?", p.ID).Delete(&models.PembelianDetail{}).Error; err != nil {
				return err
			}
			return tx.Where("pembelian_id = ?", p.ID).Delete(&models.Pembayaran{}).Error
		},
		ShowData: func(tx *gorm.DB, p *models.Pembelian) (any, any, error) {
			var details []models.PembelianDetail
			if err := tx.Where("pembelian_id = ?", p.ID).Order("id").Find(&details).Error; err != nil {
				return nil, nil, err
			}
			for i := range details {
				Decorate(pids, &details[i])
			}
			return details, p, nil
		},
		UniqueField: "nota",
		FileField:   "lampiran",
		Uploads:     uploads,
	})
}

// NewDetailResource serves purchase detail lines. Header totals follow every
// write.
func NewDetailResource(db *gorm.DB, pids *pid.Codec) *Resource[models.PembelianDetail, *models.PembelianDetail] {
	return NewResource[models.PembelianDetail](db, pids, Options[models.PembelianDetail]{
		Table: datatable.Columns{
			Search:       []string{"item", "nota", "keterangan"},
			Sort:         sortable("id", "item", "harga", "berat", "hpp", "total_harga"),
			Filters:      map[string]string{"id_pembelian": "pembelian_id", "nota": "nota"},
			DefaultOrder: "id ASC",
		},
		Prepare: func(tx *gorm.DB, d *models.PembelianDetail, _ bool) error {
			nota, err := parentNota(tx, d.PembelianID)
			d.Nota = nota
			return err
		},
		AfterWrite: func(tx *gorm.DB, d *models.PembelianDetail) error {
			return models.RecomputeTotals(tx, d.PembelianID)
		},
	})
}

func NewPembayaranResource(db *gorm.DB, pids *pid.Codec) *Resource[models.Pembayaran, *models.Pembayaran] {
	return NewResource[models.Pembayaran](db, pids, Options[models.Pembayaran]{
		Table: datatable.Columns{
			Search:       []string{"nota", "keterangan", "metode"},
			Sort:         sortable("id", "nota", "tanggal", "jumlah"),
			Filters:      map[string]string{"id_pembelian": "pembelian_id", "metode": "metode"},
			DefaultOrder: "tanggal DESC, id DESC",
		},
		Prepare: func(tx *gorm.DB, p *models.Pembayaran, _ bool) error {
			nota, err := parentNota(tx, p.PembelianID)
			p.Nota = nota
			return err
		},
	})
}

func NewPegawaiResource(db *gorm.DB, pids *pid.Codec, uploads *Uploads) *Resource[models.Pegawai, *models.Pegawai] {
	return NewResource[models.Pegawai](db, pids, Options[models.Pegawai]{
		Table: datatable.Columns{
			Search:  []string{"nik", "nama", "jabatan", "telepon"},
			Sort:    sortable("id", "nik", "nama", "jabatan", "tanggal_masuk"),
			Filters: map[string]string{"id_kantor": "kantor_id"},
		},
		UniqueField: "nik",
		FileField:   "foto",
		Uploads:     uploads,
	})
}

func parentNota(tx *gorm.DB, pembelianID uint) (string, error) {
	var header models.Pembelian
	err := tx.Select("id", "nota").First(&header, pembelianID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", Invalid("id_pembelian", "invalid_reference")
	}
	return header.Nota, err
}

func sortable(cols ...string) map[string]string {
	m := make(map[string]string, len(cols))
	for _, c := range cols {
		m[c] = c
	}
	return m
}
