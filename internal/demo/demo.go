// Package demo holds the sample rows shown when the API is unreachable.
// Every call returns a fresh fixture, so removing rows in one session never
// leaks into another.
package demo

import (
	"strings"

	"github.com/LittleKatyusha/Sapi/resource"
)

// For returns a fallback provider for the resource at base, or nil when no
// sample data exists for it.
func For(base string) resource.Provider[resource.Record] {
	base = strings.Trim(base, "/")
	switch {
	case base == "master/supplier":
		return resource.NewFixture(suppliers(), "kode", "nama", "alamat")
	case base == "master/kantor":
		return resource.NewFixture(kantor(), "kode", "nama")
	case strings.HasPrefix(base, "pembelian/") && base != "pembelian/detail":
		jenis := strings.TrimPrefix(base, "pembelian/")
		return resource.NewFixture(purchases(jenis), "nota", "nama_supplier", "catatan")
	case base == "hr/pegawai":
		return resource.NewFixture(pegawai(), "nik", "nama", "jabatan")
	}
	return nil
}

func suppliers() []resource.Record {
	return []resource.Record{
		{"id": float64(1), "kode": "SUP-001", "nama": "CV Ternak Jaya", "jenis": "sapi", "alamat": "Boyolali"},
		{"id": float64(2), "kode": "SUP-002", "nama": "PT Pakan Nusantara", "jenis": "pakan", "alamat": "Sidoarjo"},
		{"id": float64(3), "kode": "SUP-003", "nama": "UD Kulit Makmur", "jenis": "kulit", "alamat": "Garut"},
		{"id": float64(4), "kode": "SUP-004", "nama": "Apotek Hewan Sehat", "jenis": "ovk", "alamat": "Malang"},
	}
}

func kantor() []resource.Record {
	return []resource.Record{
		{"id": float64(1), "kode": "HO", "nama": "Kantor Pusat"},
		{"id": float64(2), "kode": "BYL", "nama": "Cabang Boyolali"},
	}
}

func purchases(jenis string) []resource.Record {
	prefix := strings.ToUpper(jenis)
	return []resource.Record{
		{"id": float64(1), "nota": prefix + "-001", "jenis": jenis, "tanggal": "2024-01-08", "nama_supplier": "CV Ternak Jaya", "total_berat": "120", "total_harga": "13500000"},
		{"id": float64(2), "nota": prefix + "-002", "jenis": jenis, "tanggal": "2024-01-15", "nama_supplier": "PT Pakan Nusantara", "total_berat": "80", "total_harga": "9000000"},
		{"id": float64(3), "nota": prefix + "-003", "jenis": jenis, "tanggal": "2024-02-02", "nama_supplier": "Apotek Hewan Sehat", "total_berat": "15", "total_harga": "1687500", "catatan": "kirim ulang"},
	}
}

func pegawai() []resource.Record {
	return []resource.Record{
		{"id": float64(1), "nik": "3309010101900001", "nama": "Budi Santoso", "jabatan": "Kepala Kandang"},
		{"id": float64(2), "nik": "3309010101920002", "nama": "Siti Rahayu", "jabatan": "Admin Pembelian"},
	}
}
