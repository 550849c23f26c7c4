// Package i18n holds the user-facing message catalog (Indonesian first,
// English second) used by API envelopes and client error messages.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

const DefaultLang = "id"

var matcher = language.NewMatcher([]language.Tag{language.Indonesian, language.English})

type ctxKey struct{}

// DetectLanguage picks "id" or "en" from an Accept-Language header.
// Unknown or empty headers fall back to Indonesian.
func DetectLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return DefaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	if idx == 1 {
		return "en"
	}
	return DefaultLang
}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext returns the request language, defaulting to Indonesian.
func LangFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultLang
}

var messages = map[string]map[string]string{
	"id": {
		"required":           "harus diisi",
		"must_be_positive":   "harus lebih dari nol",
		"out_of_range":       "di luar batas yang diizinkan",
		"invalid_choice":     "tidak valid",
		"must_not_be_future": "tidak boleh melebihi hari ini",
		"already_exists":     "sudah digunakan",
		"not_found":          "Data tidak ditemukan",
		"invalid_json":       "Format permintaan tidak valid",
		"invalid_reference":  "tidak ditemukan",
		"unauthenticated":    "Sesi Anda telah berakhir, silakan login kembali",
		"forbidden":          "Anda tidak memiliki akses untuk tindakan ini",
		"invalid_login":      "Username atau password salah",
		"server_error":       "Terjadi kesalahan pada server",
		"created":            "Data berhasil disimpan",
		"updated":            "Data berhasil diperbarui",
		"deleted":            "Data berhasil dihapus",
		"validation_failed":  "Data tidak valid",
		"upload_failed":      "gagal diunggah",
		"network_error":      "Tidak dapat terhubung ke server, periksa koneksi Anda",
		"invalid_response":   "Respons server tidak valid",
		"request_rejected":   "Permintaan ditolak oleh server",
		"request_canceled":   "Permintaan dibatalkan",
	},
	"en": {
		"required":           "is required",
		"must_be_positive":   "must be greater than zero",
		"out_of_range":       "is out of range",
		"invalid_choice":     "is invalid",
		"must_not_be_future": "must not be in the future",
		"already_exists":     "is already taken",
		"not_found":          "Record not found",
		"invalid_json":       "Invalid request body",
		"invalid_reference":  "was not found",
		"unauthenticated":    "Your session has expired, please log in again",
		"forbidden":          "You are not allowed to perform this action",
		"invalid_login":      "Invalid username or password",
		"server_error":       "Internal server error",
		"created":            "Record saved",
		"updated":            "Record updated",
		"deleted":            "Record deleted",
		"validation_failed":  "Invalid data",
		"upload_failed":      "could not be uploaded",
		"network_error":      "Cannot reach the server, check your connection",
		"invalid_response":   "The server sent an invalid response",
		"request_rejected":   "The server rejected the request",
		"request_canceled":   "The request was canceled",
	},
}

var fieldLabels = map[string]map[string]string{
	"id": {
		"nota":          "Nomor nota",
		"nama":          "Nama",
		"kode":          "Kode",
		"grup":          "Grup",
		"jenis":         "Jenis",
		"tanggal":       "Tanggal",
		"tanggal_masuk": "Tanggal masuk",
		"id_supplier":   "Supplier",
		"id_kantor":     "Kantor",
		"id_pembelian":  "Pembelian",
		"harga":         "Harga",
		"persentase":    "Persentase",
		"berat":         "Berat",
		"jumlah":        "Jumlah",
		"metode":        "Metode pembayaran",
		"nik":           "NIK",
		"jabatan":       "Jabatan",
		"item":          "Nama barang",
		"username":      "Username",
		"password":      "Password",
		"pid":           "Referensi data",
		"lampiran":      "Lampiran",
		"foto":          "Foto",
	},
	"en": {
		"nota":          "Invoice number",
		"nama":          "Name",
		"kode":          "Code",
		"grup":          "Group",
		"jenis":         "Type",
		"tanggal":       "Date",
		"tanggal_masuk": "Start date",
		"id_supplier":   "Supplier",
		"id_kantor":     "Office",
		"id_pembelian":  "Purchase",
		"harga":         "Price",
		"persentase":    "Percentage",
		"berat":         "Weight",
		"jumlah":        "Amount",
		"metode":        "Payment method",
		"nik":           "Employee ID",
		"jabatan":       "Position",
		"item":          "Item name",
		"username":      "Username",
		"password":      "Password",
		"pid":           "Record reference",
		"lampiran":      "Attachment",
		"foto":          "Photo",
	},
}

// T translates a message code. Unknown languages use Indonesian; unknown
// codes are returned unchanged.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Field renders a field violation as a sentence, e.g.
// Field("id", "nota", "required") == "Nomor nota harus diisi".
func Field(lang, field, code string) string {
	labels, ok := fieldLabels[lang]
	if !ok {
		labels = fieldLabels[DefaultLang]
	}
	label, ok := labels[field]
	if !ok {
		label = field
	}
	return label + " " + T(lang, code)
}
