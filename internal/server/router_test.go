package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LittleKatyusha/Sapi/apiclient"
	"github.com/LittleKatyusha/Sapi/auth"
	"github.com/LittleKatyusha/Sapi/internal/config"
	"github.com/LittleKatyusha/Sapi/internal/db"
	"github.com/LittleKatyusha/Sapi/internal/form"
	"github.com/LittleKatyusha/Sapi/internal/models"
	"github.com/LittleKatyusha/Sapi/internal/pid"
	"github.com/LittleKatyusha/Sapi/resource"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const adminPassword = "rahasia-admin"

func setupServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		RawDSN: "file:" + t.Name() + "?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(conn, adminPassword); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := New(conn, Deps{
		Tokens: auth.NewTokens("router-test", time.Hour),
		PIDs:   pid.MustNew("router-test"),
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, conn
}

func login(t *testing.T, srv *httptest.Server, user, pass string) *apiclient.Client {
	t.Helper()
	c, err := apiclient.New(srv.URL+"/api",
		apiclient.WithTokenSource(&apiclient.MemoryTokenStore{}),
		apiclient.WithCache(apiclient.NewMemoryCache(0)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Login(context.Background(), user, pass); err != nil {
		t.Fatalf("login %s: %v", user, err)
	}
	return c
}

func TestHealth(t *testing.T) {
	srv, _ := setupServer(t)
	for _, path := range []string{"/health", "/healthz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: %d", path, resp.StatusCode)
		}
	}
}

func TestAuthErrors(t *testing.T) {
	srv, conn := setupServer(t)
	ctx := context.Background()

	anon, err := apiclient.New(srv.URL+"/api", apiclient.WithTokenSource(apiclient.StaticToken("bogus")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := anon.Get(ctx, "master/supplier/data"); !errors.Is(err, apiclient.ErrSessionExpired) {
		t.Errorf("bad token: %v", err)
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("lihat-saja"), bcrypt.MinCost)
	if err := conn.Create(&models.User{Username: "viewer", Password: string(hash), Role: "viewer", Aktif: true}).Error; err != nil {
		t.Fatal(err)
	}
	viewer := login(t, srv, "viewer", "lihat-saja")
	if _, err := viewer.Get(ctx, "master/supplier/data"); err != nil {
		t.Errorf("viewer list: %v", err)
	}
	_, err = viewer.Post(ctx, "master/supplier/store", map[string]any{"kode": "X", "nama": "X"})
	if !errors.Is(err, apiclient.ErrForbidden) {
		t.Errorf("viewer store: %v", err)
	}
	if apiclient.UserMessage(err) == apiclient.UserMessage(apiclient.ErrSessionExpired) {
		t.Error("forbidden and expired share a message")
	}

	_, err = viewer.Post(ctx, "master/supplier/show", map[string]any{"pid": "tidak-ada"})
	if !errors.Is(err, apiclient.ErrNotFound) {
		t.Errorf("unknown pid: %v", err)
	}
}

func TestSupplierListPaging(t *testing.T) {
	srv, _ := setupServer(t)
	ctx := context.Background()
	suppliers := resource.New[models.Supplier](login(t, srv, "admin", adminPassword), resource.Config[models.Supplier]{
		Base:  "master/supplier",
		Cache: true,
	})
	for i := 1; i <= 21; i++ {
		res := suppliers.Create(ctx, map[string]any{"kode": fmt.Sprintf("SUP-%02d", i), "nama": fmt.Sprintf("Supplier %d", i), "jenis": "ovk"})
		if !res.Success {
			t.Fatalf("create %d: %+v", i, res)
		}
	}

	for page := 1; page <= 3; page++ {
		if err := suppliers.FetchList(ctx, resource.Query{Page: page, PerPage: 10}); err != nil {
			t.Fatal(err)
		}
		want := min(10, 21-(page-1)*10)
		if got := len(suppliers.Items()); got != want {
			t.Errorf("page %d: %d items, want %d", page, got, want)
		}
	}
	p := suppliers.Pagination()
	if p.TotalItems != 21 || p.TotalPages != 3 {
		t.Fatalf("pagination %+v", p)
	}

	last := suppliers.Items()[0]
	if res := suppliers.Delete(ctx, last.EntityID()); !res.Success {
		t.Fatalf("delete: %+v", res)
	}
	if p := suppliers.Pagination(); p.CurrentPage != 2 || p.TotalItems != 20 || len(suppliers.Items()) != 10 {
		t.Errorf("after delete %+v, %d items", p, len(suppliers.Items()))
	}

	if err := suppliers.FetchList(ctx, resource.Query{Search: "supplier 7"}); err != nil {
		t.Fatal(err)
	}
	if items := suppliers.Items(); len(items) != 1 || items[0].Kode != "SUP-07" {
		t.Errorf("search: %+v", items)
	}
}

func TestPurchaseFormRoundTrip(t *testing.T) {
	srv, _ := setupServer(t)
	ctx := context.Background()
	client := login(t, srv, "admin", adminPassword)

	suppliers := resource.New[models.Supplier](client, resource.Config[models.Supplier]{Base: "master/supplier"})
	res := suppliers.Create(ctx, map[string]any{"kode": "SUP-OVK", "nama": "CV Obat Ternak", "jenis": "ovk"})
	if !res.Success {
		t.Fatalf("supplier: %+v", res)
	}
	supplier, err := resource.DecodeJSON[models.Supplier](res.Data)
	if err != nil {
		t.Fatal(err)
	}

	headers := resource.New[resource.Record](client, resource.Config[resource.Record]{Base: "pembelian/ovk"})
	details := resource.New[resource.Record](client, resource.Config[resource.Record]{Base: "pembelian/detail"})
	backend := form.Backend{Header: headers, Detail: details}

	f := form.NewPurchaseForm("ovk", nil)
	f.Header.Nota = "OVK-001"
	f.Header.SupplierID = supplier.EntityID()
	f.Header.Tanggal = "2024-01-15"
	for i, berat := range []string{"2", "3"} {
		f.AddRow()
		for field, value := range map[string]string{"item": "Vitamin", "harga": "100.000", "persentase": "12,5", "berat": berat} {
			if err := f.SetRowField(i, field, value); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.Save(ctx, backend); err != nil {
		t.Fatalf("save: %v", err)
	}
	if f.Header.PID == "" || !f.Rows[0].ID.IsSaved() || !f.Rows[1].ID.IsSaved() {
		t.Fatalf("after save header %+v rows %+v", f.Header, f.Rows)
	}

	show, err := headers.ShowPID(ctx, f.Header.PID)
	if err != nil {
		t.Fatal(err)
	}
	if !show.HasHeader || show.Header.String("total_harga") != "562500" {
		t.Errorf("header %v", show.Header)
	}

	edit := form.NewPurchaseForm("ovk", nil)
	edit.Load(show, nil)
	if edit.Matched != form.MatchPID || len(edit.Rows) != 2 || edit.Rows[0].HPP.String() != "112500" {
		t.Fatalf("loaded via %s: %+v", edit.Matched, edit.Rows)
	}
	if err := edit.RemoveRow(ctx, backend, 1); err != nil {
		t.Fatal(err)
	}
	_ = edit.SetRowField(0, "berat", "4")
	if err := edit.Save(ctx, backend); err != nil {
		t.Fatal(err)
	}
	show, err = headers.ShowPID(ctx, f.Header.PID)
	if err != nil {
		t.Fatal(err)
	}
	if len(show.Rows) != 1 || show.Header.String("total_harga") != "450000" {
		t.Errorf("after edit rows %d header %v", len(show.Rows), show.Header)
	}

	dup := form.NewPurchaseForm("ovk", nil)
	dup.Header.Nota, dup.Header.SupplierID = "OVK-001", supplier.EntityID()
	dup.AddRow()
	for field, value := range map[string]string{"item": "x", "harga": "1", "berat": "1"} {
		_ = dup.SetRowField(0, field, value)
	}
	err = dup.Save(ctx, backend)
	var se *form.SaveError
	if !errors.As(err, &se) || se.Row != -1 || !errors.Is(err, apiclient.ErrRejected) {
		t.Errorf("duplicate nota: %v", err)
	}
}
