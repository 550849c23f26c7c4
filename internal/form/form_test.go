package form

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/LittleKatyusha/Sapi/apiclient"
	"github.com/LittleKatyusha/Sapi/resource"
)

func TestClassifyLegacyID(t *testing.T) {
	tests := []struct {
		id    int64
		saved bool
	}{
		{5, true},
		{999, true},
		{1_000_000_000, true},
		{1_000_000_001, false},
		{1734000000000, false},
		{0, false},
	}
	for _, tt := range tests {
		if got := ClassifyLegacyID(tt.id); got.IsSaved() != tt.saved {
			t.Errorf("ClassifyLegacyID(%d) = %v", tt.id, got)
		}
	}
	if Saved(5).ServerID() != 5 || Unsaved(1734000000000).ServerID() != 0 {
		t.Error("ServerID")
	}
	if Saved(7).Key() == Unsaved(7).Key() {
		t.Error("saved and unsaved keys collide")
	}
}

func fixedClock(ms int64) Clock {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestAddRowUniqueIDs(t *testing.T) {
	f := NewPurchaseForm("ovk", fixedClock(1734000000000))
	a, b := f.AddRow(), f.AddRow()
	if f.Rows[a].ID.IsSaved() || f.Rows[a].ID == f.Rows[b].ID {
		t.Fatalf("rows %v %v", f.Rows[a].ID, f.Rows[b].ID)
	}
	if f.Rows[a].ID != Unsaved(1734000000000) {
		t.Errorf("first id %v", f.Rows[a].ID)
	}
}

func TestSetRowFieldDerives(t *testing.T) {
	f := NewPurchaseForm("ovk", fixedClock(1))
	for i := 0; i < 2; i++ {
		f.AddRow()
		if err := f.SetRowField(i, "harga", "100000"); err != nil {
			t.Fatal(err)
		}
		if err := f.SetRowField(i, "persentase", "12,5"); err != nil {
			t.Fatal(err)
		}
	}
	for i, r := range f.Rows {
		if r.HPP.String() != "112500" {
			t.Errorf("row %d hpp = %s", i, r.HPP)
		}
		if !r.Total.IsZero() {
			t.Errorf("row %d total before berat = %s", i, r.Total)
		}
	}
	if err := f.SetRowField(0, "berat", "2"); err != nil {
		t.Fatal(err)
	}
	if f.Rows[0].Total.String() != "225000" {
		t.Errorf("total = %s", f.Rows[0].Total)
	}
	if err := f.SetRowField(0, "harga", "200.000"); err != nil {
		t.Fatal(err)
	}
	if f.Rows[0].HPP.String() != "225000" || f.Rows[0].Total.String() != "450000" {
		t.Errorf("after harga change hpp=%s total=%s", f.Rows[0].HPP, f.Rows[0].Total)
	}
	if _, total := f.Totals(); total.String() != "450000" {
		t.Errorf("Totals = %s", total)
	}
	if err := f.SetRowField(0, "warna", "x"); err == nil {
		t.Error("unknown field accepted")
	}
	if err := f.SetRowField(5, "harga", "1"); !errors.Is(err, ErrNoRow) {
		t.Errorf("err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	f := NewPurchaseForm("ovk", fixedClock(1))
	v := f.Validate()
	for _, k := range []string{"nota", "id_supplier", "detail"} {
		if v[k] != "required" {
			t.Errorf("%s: %q", k, v[k])
		}
	}
	f.Header.Nota, f.Header.SupplierID = "OVK-001", 1
	f.AddRow()
	_ = f.SetRowField(0, "harga", "abc")
	v = f.Validate()
	if v["detail.0.harga"] != "invalid_number" || v["detail.0.berat"] != "must_be_positive" {
		t.Errorf("row violations %v", v)
	}
	if v["detail.0.item"] != "required" {
		t.Errorf("item: %q", v["detail.0.item"])
	}
	_ = f.SetRowField(0, "item", "Vitamin B")
	_ = f.SetRowField(0, "harga", "1000")
	_ = f.SetRowField(0, "berat", "1,5")
	if v := f.Validate(); !v.Empty() {
		t.Errorf("unexpected %v", v)
	}
}

// fakeMutator records calls and answers from a queue.
type fakeMutator struct {
	creates []any
	updates []map[string]any
	ids     []int64
	deletes []int64
	answers []resource.Result
}

func (m *fakeMutator) next() resource.Result {
	if len(m.answers) == 0 {
		return resource.Result{Success: true}
	}
	r := m.answers[0]
	m.answers = m.answers[1:]
	return r
}

func (m *fakeMutator) Create(_ context.Context, p any) resource.Result {
	m.creates = append(m.creates, p)
	return m.next()
}

func (m *fakeMutator) Update(_ context.Context, id int64, p map[string]any) resource.Result {
	m.ids = append(m.ids, id)
	m.updates = append(m.updates, p)
	return m.next()
}

func (m *fakeMutator) Delete(_ context.Context, id int64) resource.Result {
	m.deletes = append(m.deletes, id)
	return m.next()
}

func ok(data string) resource.Result {
	return resource.Result{Success: true, Data: json.RawMessage(data)}
}

func TestSaveNewPurchase(t *testing.T) {
	header := &fakeMutator{answers: []resource.Result{ok(`{"id":10,"pid":"H10"}`)}}
	detail := &fakeMutator{answers: []resource.Result{ok(`{"id":21,"pid":"D21"}`), ok(`{"id":22,"pid":"D22"}`)}}
	f := NewPurchaseForm("ovk", fixedClock(1734000000000))
	f.Header.Nota, f.Header.SupplierID = " OVK-001 ", 3
	for i := 0; i < 2; i++ {
		f.AddRow()
		_ = f.SetRowField(i, "item", "Vaksin")
		_ = f.SetRowField(i, "harga", "100000")
		_ = f.SetRowField(i, "berat", "1")
	}

	if err := f.Save(context.Background(), Backend{Header: header, Detail: detail}); err != nil {
		t.Fatal(err)
	}
	if len(header.creates) != 1 || f.Header.ID != 10 || f.Header.PID != "H10" {
		t.Fatalf("header %+v creates %d", f.Header, len(header.creates))
	}
	if p := header.creates[0].(map[string]any); p["nota"] != "OVK-001" {
		t.Errorf("header nota %q", p["nota"])
	}
	for i, p := range detail.updates {
		pid, present := p["pid"]
		if detail.ids[i] != 0 || !present || pid != nil || p["pid_pembelian"] != "H10" {
			t.Errorf("row %d payload %v id %d", i, p, detail.ids[i])
		}
	}
	if f.Rows[0].ID != Saved(21) || f.Rows[1].PID != "D22" {
		t.Errorf("rows %+v", f.Rows)
	}

	// second save updates in place
	detail.updates, detail.ids = nil, nil
	if err := f.Save(context.Background(), Backend{Header: header, Detail: detail}); err != nil {
		t.Fatal(err)
	}
	if header.updates[0]["pid"] != "H10" || detail.ids[0] != 21 || detail.updates[1]["pid"] != "D22" {
		t.Errorf("updates header %v detail %v ids %v", header.updates, detail.updates, detail.ids)
	}
}

func TestSaveStopsOnRefusal(t *testing.T) {
	refused := resource.Result{Message: "Nomor nota harus diisi", Err: apiclient.ErrRejected}
	header := &fakeMutator{answers: []resource.Result{refused}}
	detail := &fakeMutator{}
	f := NewPurchaseForm("ovk", fixedClock(1))
	f.Header.Nota, f.Header.SupplierID = "X", 1
	f.AddRow()
	_ = f.SetRowField(0, "item", "Vaksin")
	_ = f.SetRowField(0, "harga", "1")
	_ = f.SetRowField(0, "berat", "1")

	err := f.Save(context.Background(), Backend{Header: header, Detail: detail})
	var se *SaveError
	if !errors.As(err, &se) || se.Row != -1 || se.Result.Message != "Nomor nota harus diisi" {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, apiclient.ErrRejected) || len(detail.updates) != 0 {
		t.Errorf("detail calls %d", len(detail.updates))
	}

	var inv *InvalidError
	if err := NewPurchaseForm("ovk", nil).Save(context.Background(), Backend{}); !errors.As(err, &inv) {
		t.Errorf("invalid form err = %v", err)
	}
}

func TestRemoveRow(t *testing.T) {
	detail := &fakeMutator{answers: []resource.Result{{Message: "gagal"}, {Success: true}}}
	b := Backend{Detail: detail}
	f := NewPurchaseForm("ovk", fixedClock(1734000000000))
	f.Rows = []DetailRow{{ID: Saved(5)}, {ID: Unsaved(1734000000000)}}

	if err := f.RemoveRow(context.Background(), b, 1); err != nil || len(detail.deletes) != 0 {
		t.Fatalf("unsaved remove: %v, deletes %v", err, detail.deletes)
	}
	if err := f.RemoveRow(context.Background(), b, 0); err == nil || len(f.Rows) != 1 {
		t.Fatalf("refused remove: %v, rows %d", err, len(f.Rows))
	}
	if err := f.RemoveRow(context.Background(), b, 0); err != nil || len(f.Rows) != 0 {
		t.Fatalf("remove: %v, rows %d", err, len(f.Rows))
	}
	if len(detail.deletes) != 2 || detail.deletes[1] != 5 || len(f.Removed) != 1 {
		t.Errorf("deletes %v removed %v", detail.deletes, f.Removed)
	}
}

func TestResolveHeader(t *testing.T) {
	detail := resource.Record{"id": float64(7), "pid_pembelian": "H1", "id_pembelian": float64(1), "nota": "ovk-001"}
	tests := []struct {
		name       string
		candidates []resource.Record
		wantKind   MatchKind
		wantNota   string
	}{
		{"pid", []resource.Record{{"id": float64(9), "pid": "X"}, {"id": float64(2), "pid": "H1", "nota": "A"}}, MatchPID, "A"},
		{"decoded id", []resource.Record{{"id": float64(1), "pid": "other", "nota": "B"}}, MatchDecodedID, "B"},
		{"nota", []resource.Record{{"id": float64(4), "nota": "OVK-001"}}, MatchNota, "OVK-001"},
		{"pid wins over earlier nota candidate", []resource.Record{{"nota": "OVK-001"}, {"pid": "H1", "nota": "C"}}, MatchPID, "C"},
		{"detail only", []resource.Record{{"id": float64(3), "nota": "zzz"}}, MatchDetailOnly, "ovk-001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, kind := ResolveHeader([]resource.Record{detail}, tt.candidates, DefaultMatchers)
			if kind != tt.wantKind || h.String("nota") != tt.wantNota {
				t.Errorf("got %s %v", kind, h)
			}
		})
	}
	h, _ := ResolveHeader([]resource.Record{detail}, nil, DefaultMatchers)
	if h.PID() != "H1" || h.ID() != 1 {
		t.Errorf("detail-only header %v", h)
	}
}

func TestLoad(t *testing.T) {
	show := resource.ShowResult[resource.Record]{
		Rows: []resource.Record{
			{"id": float64(5), "pid": "D5", "pid_pembelian": "H1", "harga": "100000", "persentase": "12.5", "berat": "2"},
			{"id": float64(1734000000000), "pid_pembelian": "H1", "harga": "1000", "berat": "1"},
		},
		Header:    resource.Record{"id": float64(1), "pid": "H1", "nota": "OVK-001", "id_supplier": float64(3)},
		HasHeader: true,
	}
	f := NewPurchaseForm("ovk", fixedClock(1))
	f.Load(show, nil)
	if f.Matched != MatchPID || f.Header.PID != "H1" || f.Header.SupplierID != 3 {
		t.Fatalf("header %+v via %s", f.Header, f.Matched)
	}
	if !f.Rows[0].ID.IsSaved() || f.Rows[1].ID.IsSaved() {
		t.Errorf("row ids %v %v", f.Rows[0].ID, f.Rows[1].ID)
	}
	if f.Rows[0].Total.String() != "225000" {
		t.Errorf("derived total %s", f.Rows[0].Total)
	}
	if i := f.AddRow(); f.Rows[i].ID == f.Rows[1].ID {
		t.Error("new row reused a loaded client id")
	}
}

func TestLoadHeaderOnly(t *testing.T) {
	show := resource.ShowResult[resource.Record]{
		Header:    resource.Record{"id": float64(2), "pid": "H2", "nota": "PKN-002", "id_supplier": float64(4)},
		HasHeader: true,
	}
	f := NewPurchaseForm("pakan", fixedClock(1))
	f.Load(show, nil)
	if f.Matched != MatchShowHeader || f.Header.Nota != "PKN-002" || len(f.Rows) != 0 {
		t.Fatalf("header %+v rows %d via %q", f.Header, len(f.Rows), f.Matched)
	}
}
