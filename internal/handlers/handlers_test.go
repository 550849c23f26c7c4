package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LittleKatyusha/Sapi/auth"
	"github.com/LittleKatyusha/Sapi/internal/models"
	"github.com/LittleKatyusha/Sapi/internal/pid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

var testPIDs = pid.MustNew("test-secret")

type response struct {
	Status          string            `json:"status"`
	Message         string            `json:"message"`
	Data            json.RawMessage   `json:"data"`
	Header          json.RawMessage   `json:"header"`
	Errors          map[string]string `json:"errors"`
	RecordsTotal    int64             `json:"recordsTotal"`
	RecordsFiltered int64             `json:"recordsFiltered"`
}

func call(t *testing.T, h http.HandlerFunc, method, target, body string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	var out response
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, target, err, w.Body.String())
	}
	return w.Code, out
}

func field(t *testing.T, raw json.RawMessage, key string) any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode record: %v (%s)", err, raw)
	}
	return m[key]
}

func TestSupplierLifecycle(t *testing.T) {
	db := setupTestDB(t)
	h := NewSupplierResource(db, testPIDs)

	code, res := call(t, h.Store, http.MethodPost, "/store", `{"kode":"SUP-01","nama":"CV Ternak Jaya","jenis":"sapi"}`)
	if code != http.StatusCreated || res.Status != "ok" {
		t.Fatalf("store: %d %+v", code, res)
	}
	token, _ := field(t, res.Data, "pid").(string)
	if token == "" || field(t, res.Data, "pubid") == "" {
		t.Fatalf("expected pid and pubid in %s", res.Data)
	}

	code, res = call(t, h.Store, http.MethodPost, "/store", `{"kode":"SUP-01","nama":"Duplicate"}`)
	if code != http.StatusUnprocessableEntity || res.Errors["kode"] == "" {
		t.Fatalf("duplicate kode: %d %+v", code, res)
	}

	code, res = call(t, h.Update, http.MethodPost, "/update", `{"pid":"`+token+`","nama":"CV Ternak Makmur"}`)
	if code != http.StatusOK || field(t, res.Data, "nama") != "CV Ternak Makmur" || field(t, res.Data, "kode") != "SUP-01" {
		t.Fatalf("update: %d %s", code, res.Data)
	}

	code, res = call(t, h.List, http.MethodGet, "/data?draw=1&start=0&length=10&search[value]=makmur", "")
	if code != http.StatusOK || res.RecordsTotal != 1 || res.RecordsFiltered != 1 {
		t.Fatalf("list: %d %+v", code, res)
	}

	code, _ = call(t, h.Show, http.MethodPost, "/show", `{"pid":"`+token+`"}`)
	if code != http.StatusOK {
		t.Fatalf("show: %d", code)
	}

	code, res = call(t, h.Delete, http.MethodPost, "/hapus", `{"pid":"`+token+`"}`)
	if code != http.StatusOK || res.Message != "Data berhasil dihapus" {
		t.Fatalf("delete: %d %+v", code, res)
	}
	code, _ = call(t, h.Show, http.MethodPost, "/show", `{"pid":"`+token+`"}`)
	if code != http.StatusNotFound {
		t.Fatalf("show after delete: %d", code)
	}
	code, _ = call(t, h.Update, http.MethodPost, "/update", `{"pid":"garbage","nama":"x"}`)
	if code != http.StatusNotFound {
		t.Fatalf("update with bad pid: %d", code)
	}
	code, _ = call(t, h.Delete, http.MethodPost, "/hapus", `{"pid":"garbage"}`)
	if code != http.StatusNotFound {
		t.Fatalf("delete with bad pid: %d", code)
	}
}

func TestPembelianValidation(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Supplier{Kode: "S1", Nama: "UD Sumber Pakan"})
	h := NewPembelianResource(db, testPIDs, models.JenisPakan, nil)

	code, res := call(t, h.Store, http.MethodPost, "/store", `{"nota":"","id_supplier":1,"tanggal":"2024-05-01"}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if res.Errors["nota"] != "Nomor nota harus diisi" {
		t.Errorf("errors = %v", res.Errors)
	}

	code, res = call(t, h.Store, http.MethodPost, "/store", `{"nota":"PKN-1","id_supplier":99,"tanggal":"2024-05-01"}`)
	if code != http.StatusUnprocessableEntity || res.Message != "Supplier tidak ditemukan" {
		t.Fatalf("unknown supplier: %d %+v", code, res)
	}

	code, _ = call(t, h.Store, http.MethodPost, "/store", `{"nota":`)
	if code != http.StatusBadRequest {
		t.Fatalf("malformed json: %d", code)
	}
}

func TestPurchaseWithDetails(t *testing.T) {
	db := setupTestDB(t)
	supplier := models.Supplier{Kode: "S1", Nama: "UD Pakan Sejahtera", Jenis: "pakan"}
	db.Create(&supplier)

	headers := NewPembelianResource(db, testPIDs, models.JenisPakan, nil)
	details := NewDetailResource(db, testPIDs)

	code, res := call(t, headers.Store, http.MethodPost, "/store",
		`{"nota":"PKN-001","tanggal":"2024-05-01","id_supplier":`+uintString(supplier.ID)+`}`)
	if code != http.StatusCreated {
		t.Fatalf("store header: %d %+v", code, res)
	}
	headerPID := field(t, res.Data, "pid").(string)

	// null pid plus parent reference creates a new line
	code, res = call(t, details.Update, http.MethodPost, "/update",
		`{"pid":null,"pid_pembelian":"`+headerPID+`","item":"Konsentrat","harga":"100.000","persentase":"12,5","berat":"2"}`)
	if code != http.StatusCreated {
		t.Fatalf("create detail: %d %+v", code, res)
	}
	if got := field(t, res.Data, "hpp"); got != "112500" {
		t.Errorf("hpp = %v, want 112500", got)
	}
	if got := field(t, res.Data, "total_harga"); got != "225000" {
		t.Errorf("total_harga = %v", got)
	}
	if got := field(t, res.Data, "nota"); got != "PKN-001" {
		t.Errorf("denormalized nota = %v", got)
	}
	if got := field(t, res.Data, "pid_pembelian"); got != headerPID {
		t.Errorf("pid_pembelian = %v, want header pid", got)
	}
	detailPID := field(t, res.Data, "pid").(string)

	code, res = call(t, details.Update, http.MethodPost, "/update", `{"pid":"`+detailPID+`","berat":"3"}`)
	if code != http.StatusOK || field(t, res.Data, "total_harga") != "337500" {
		t.Fatalf("update detail: %d %s", code, res.Data)
	}

	// a pid that does not decode names no row, even with a parent reference
	code, res = call(t, details.Update, http.MethodPost, "/update",
		`{"pid":"stale-token","pid_pembelian":"`+headerPID+`","item":"Konsentrat","harga":"100000","persentase":"0","berat":"1"}`)
	if code != http.StatusNotFound || res.Message != "Data tidak ditemukan" {
		t.Fatalf("update with stale pid: %d %+v", code, res)
	}
	var lines int64
	db.Model(&models.PembelianDetail{}).Count(&lines)
	if lines != 1 {
		t.Fatalf("detail rows = %d, want 1", lines)
	}

	code, res = call(t, headers.Show, http.MethodPost, "/show", `{"pid":"`+headerPID+`"}`)
	if code != http.StatusOK {
		t.Fatalf("show: %d", code)
	}
	var rows []map[string]any
	if err := json.Unmarshal(res.Data, &rows); err != nil || len(rows) != 1 {
		t.Fatalf("show data = %s", res.Data)
	}
	if got := field(t, res.Header, "total_harga"); got != "337500" {
		t.Errorf("header total_harga = %v", got)
	}
	if got := field(t, res.Header, "total_berat"); got != "3" {
		t.Errorf("header total_berat = %v", got)
	}

	// other purchase kinds do not see this header
	ovk := NewPembelianResource(db, testPIDs, models.JenisOVK, nil)
	code, _ = call(t, ovk.Show, http.MethodPost, "/show", `{"pid":"`+headerPID+`"}`)
	if code != http.StatusNotFound {
		t.Errorf("cross-kind show: %d", code)
	}

	code, _ = call(t, details.Delete, http.MethodPost, "/hapus", `{"pid":"`+detailPID+`"}`)
	if code != http.StatusOK {
		t.Fatalf("delete detail: %d", code)
	}
	var header models.Pembelian
	db.Where("nota = ?", "PKN-001").First(&header)
	if !header.TotalHarga.IsZero() {
		t.Errorf("totals not re-summed after delete: %s", header.TotalHarga)
	}

	code, res = call(t, details.Update, http.MethodPost, "/update", `{"pid":null,"item":"x"}`)
	if code != http.StatusUnprocessableEntity || res.Errors["pid"] == "" {
		t.Errorf("update without target: %d %+v", code, res)
	}
}

func TestPegawaiMultipartUpload(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	h := NewPegawaiResource(db, testPIDs, &Uploads{Dir: dir, URLPath: "/uploads/", MaxBytes: 1 << 20})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("nik", "3201001")
	_ = mw.WriteField("nama", "Budi Santoso")
	_ = mw.WriteField("id_kantor", "0")
	_ = mw.WriteField("aktif", "on")
	_ = mw.WriteField("tanggal_masuk", "2023-01-02")
	fw, _ := mw.CreateFormFile("foto", "budi.png")
	_, _ = fw.Write([]byte("\x89PNG fake"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/store", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.Store(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("store: %d %s", w.Code, w.Body.String())
	}
	var p models.Pegawai
	if err := db.First(&p).Error; err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(p.Foto, "/uploads/") || !strings.HasSuffix(p.Foto, ".png") {
		t.Fatalf("foto = %q", p.Foto)
	}
	if _, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(p.Foto, "/uploads/"))); err != nil {
		t.Errorf("uploaded file missing: %v", err)
	}
	if p.TanggalMasuk.String() != "2023-01-02" || !p.Aktif {
		t.Errorf("form fields not decoded: %+v", p)
	}
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.MinCost)
	db.Create(&models.User{Username: "operator1", Password: string(hash), Role: "operator", Aktif: true})
	tokens := auth.NewTokens("jwt-test", 0)
	h := NewAuthHandler(db, tokens, testPIDs)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"username":"operator1","password":"rahasia"}`, http.StatusOK},
		{"wrong password", `{"username":"operator1","password":"salah"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"nobody","password":"x"}`, http.StatusUnauthorized},
		{"missing fields", `{}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, res := call(t, h.Login, http.MethodPost, "/auth/login", tt.body)
			if code != tt.want {
				t.Fatalf("status = %d, want %d (%+v)", code, tt.want, res)
			}
			if code != http.StatusOK {
				return
			}
			token, _ := field(t, res.Data, "token").(string)
			u, err := tokens.Parse(token)
			if err != nil || u.Username != "operator1" || u.Role != "operator" {
				t.Fatalf("token user = %+v, err %v", u, err)
			}
			if strings.Contains(string(res.Data), "password\":") {
				t.Error("password hash leaked")
			}
		})
	}
}
