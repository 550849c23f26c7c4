package models

// User is an operator account of the back-office.
type User struct {
	Base
	Username string `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Nama     string `gorm:"size:150" json:"nama"`
	Password string `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	Role     string `gorm:"size:20;not null;default:'viewer'" json:"role"`
	Aktif    bool   `gorm:"default:true" json:"aktif"`
}

// All lists every model for AutoMigrate, parents first.
func All() []any {
	return []any{
		&User{}, &Supplier{}, &Kantor{}, &Parameter{},
		&Pembelian{}, &PembelianDetail{}, &Pembayaran{}, &Pegawai{},
	}
}
