package db

import (
	"errors"
	"fmt"

	"github.com/LittleKatyusha/Sapi/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seed inserts the admin account, the head office and the base
// classification parameters. Existing rows are left untouched.
func Seed(conn *gorm.DB, adminPassword string) error {
	var admin models.User
	err := conn.Where("username = ?", "admin").First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, herr := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if herr != nil {
			return fmt.Errorf("hash admin password: %w", herr)
		}
		admin = models.User{Username: "admin", Nama: "Administrator", Password: string(hash), Role: "admin", Aktif: true}
		if err := conn.Create(&admin).Error; err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	} else if err != nil {
		return err
	}

	kantor := models.Kantor{Kode: "HO", Nama: "Kantor Pusat"}
	if err := conn.Where(models.Kantor{Kode: kantor.Kode}).FirstOrCreate(&kantor).Error; err != nil {
		return fmt.Errorf("seed kantor: %w", err)
	}

	for _, p := range baseParameters() {
		p := p
		if err := conn.Where(models.Parameter{Grup: p.Grup, Kode: p.Kode}).FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("seed parameter %s/%s: %w", p.Grup, p.Kode, err)
		}
	}
	return nil
}

func baseParameters() []models.Parameter {
	return []models.Parameter{
		{Grup: "klasifikasi_sapi", Kode: "BX", Nama: "Brahman Cross", Urutan: 1},
		{Grup: "klasifikasi_sapi", Kode: "LMS", Nama: "Limousin", Urutan: 2},
		{Grup: "klasifikasi_sapi", Kode: "SML", Nama: "Simmental", Urutan: 3},
		{Grup: "klasifikasi_sapi", Kode: "PO", Nama: "Peranakan Ongole", Urutan: 4},
		{Grup: "jenis_pakan", Kode: "KONS", Nama: "Konsentrat", Urutan: 1},
		{Grup: "jenis_pakan", Kode: "HIJ", Nama: "Hijauan", Urutan: 2},
		{Grup: "jenis_pakan", Kode: "SLS", Nama: "Silase", Urutan: 3},
		{Grup: "satuan", Kode: "KG", Nama: "Kilogram", Urutan: 1, Atribut: datatypes.JSONMap{"simbol": "kg"}},
		{Grup: "satuan", Kode: "LBR", Nama: "Lembar", Urutan: 2, Atribut: datatypes.JSONMap{"simbol": "lbr"}},
		{Grup: "satuan", Kode: "BTL", Nama: "Botol", Urutan: 3, Atribut: datatypes.JSONMap{"simbol": "btl"}},
	}
}
