// Package form holds the state of the purchase entry screen: one header and
// its ordered detail rows, with derived prices kept in step with the inputs.
package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LittleKatyusha/Sapi/apiclient"
	"github.com/LittleKatyusha/Sapi/internal/locale"
	"github.com/LittleKatyusha/Sapi/internal/pricing"
	"github.com/LittleKatyusha/Sapi/resource"
	"github.com/LittleKatyusha/Sapi/validation"
)

// ErrNoRow is returned for row indexes outside the form.
var ErrNoRow = errors.New("form: row index out of range")

// Clock returns the current time; AddRow derives client ids from it.
type Clock func() time.Time

// Header is the parent purchase record.
type Header struct {
	ID         int64
	PID        string
	Nota       string
	Tanggal    string
	SupplierID int64
	KantorID   int64
	Catatan    string
	Lampiran   *apiclient.File
}

// DetailRow is one line item. Numeric inputs are kept as typed; HPP and
// Total are derived from them on every change.
type DetailRow struct {
	ID            RowID
	PID           string
	Item          string
	KlasifikasiID string
	Harga         string
	Persentase    string
	Berat         string
	Keterangan    string

	HPP   decimal.Decimal
	Total decimal.Decimal
}

// Recalculate re-derives HPP and Total. Unparsable inputs count as zero and
// the first parse error is returned.
func (r *DetailRow) Recalculate() error {
	var first error
	num := func(s string) decimal.Decimal {
		d, err := locale.ParseNumber(s)
		if err != nil && first == nil {
			first = err
		}
		return d
	}
	r.HPP, r.Total = pricing.Line(num(r.Harga), num(r.Persentase), num(r.Berat))
	return first
}

// PurchaseForm edits one purchase of a given jenis.
type PurchaseForm struct {
	Jenis  string
	Header Header
	Rows   []DetailRow
	// Matched is how Load joined the details to their header.
	Matched MatchKind
	// Removed lists saved rows deleted since the last Save or Load.
	Removed []RowID

	clock  Clock
	lastID int64
}

func NewPurchaseForm(jenis string, clock Clock) *PurchaseForm {
	if clock == nil {
		clock = time.Now
	}
	return &PurchaseForm{Jenis: jenis, clock: clock}
}

// AddRow appends an empty unsaved row and returns its index. Client ids are
// Unix milliseconds, bumped when two rows are added in the same millisecond.
func (f *PurchaseForm) AddRow() int {
	id := f.clock().UnixMilli()
	if id <= f.lastID {
		id = f.lastID + 1
	}
	f.lastID = id
	f.Rows = append(f.Rows, DetailRow{ID: Unsaved(id)})
	return len(f.Rows) - 1
}

// SetRowField stores value in the named field of row i and re-derives the
// prices. Field names follow the API's JSON keys.
func (f *PurchaseForm) SetRowField(i int, field, value string) error {
	if i < 0 || i >= len(f.Rows) {
		return ErrNoRow
	}
	row := &f.Rows[i]
	switch field {
	case "item":
		row.Item = value
	case "id_klasifikasi":
		row.KlasifikasiID = value
	case "harga":
		row.Harga = value
	case "persentase":
		row.Persentase = value
	case "berat":
		row.Berat = value
	case "keterangan":
		row.Keterangan = value
	default:
		return fmt.Errorf("form: unknown field %q", field)
	}
	if err := row.Recalculate(); err != nil {
		return fmt.Errorf("form: row %d %s: %w", i, field, err)
	}
	return nil
}

// Totals sums berat and total over all rows.
func (f *PurchaseForm) Totals() (berat, total decimal.Decimal) {
	for _, r := range f.Rows {
		b, _ := locale.ParseNumber(r.Berat)
		berat = berat.Add(b)
		total = total.Add(r.Total)
	}
	return berat, total
}

// Validate checks the form before it is sent. Row fields are keyed
// "detail.<index>.<field>".
func (f *PurchaseForm) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("nota", f.Header.Nota, v)
	if f.Header.SupplierID <= 0 {
		v["id_supplier"] = "required"
	}
	if len(f.Rows) == 0 {
		v["detail"] = "required"
	}
	for i, r := range f.Rows {
		prefix := "detail." + strconv.Itoa(i) + "."
		validation.Required(prefix+"item", r.Item, v)
		for name, raw := range map[string]string{"harga": r.Harga, "berat": r.Berat} {
			d, err := locale.ParseNumber(raw)
			if err != nil {
				v[prefix+name] = "invalid_number"
				continue
			}
			validation.PositiveDecimal(prefix+name, d, v)
		}
		if p, err := locale.ParseNumber(r.Persentase); err != nil {
			v[prefix+"persentase"] = "invalid_number"
		} else if p.IsNegative() {
			v[prefix+"persentase"] = "must_be_positive"
		}
	}
	return v
}

// InvalidError reports a form that failed Validate.
type InvalidError struct {
	Violations validation.Violations
}

func (e *InvalidError) Error() string {
	return "form: invalid " + strings.Join(e.Violations.Fields(), ", ")
}

// Mutator is the write side of a resource.Resource.
type Mutator interface {
	Create(ctx context.Context, payload any) resource.Result
	Update(ctx context.Context, id int64, payload map[string]any) resource.Result
	Delete(ctx context.Context, id int64) resource.Result
}

// Backend pairs the header resource with the detail resource.
type Backend struct {
	Header Mutator
	Detail Mutator
}

// SaveError reports the step of Save that the server refused. Row is -1
// for the header.
type SaveError struct {
	Row    int
	Result resource.Result
}

func (e *SaveError) Error() string {
	if e.Row < 0 {
		return "form: save header: " + e.Result.Message
	}
	return fmt.Sprintf("form: save row %d: %s", e.Row, e.Result.Message)
}

func (e *SaveError) Unwrap() error { return e.Result.Err }

// Save writes the header then every row. Unsaved rows are sent with a null
// pid under the header, which creates them; saved rows are updated in
// place. Rows turn Saved as soon as the server returns their id. Save stops
// at the first refusal; rows stored before it stay saved.
func (f *PurchaseForm) Save(ctx context.Context, b Backend) error {
	if v := f.Validate(); !v.Empty() {
		return &InvalidError{Violations: v}
	}
	if err := f.saveHeader(ctx, b.Header); err != nil {
		return err
	}
	for i := range f.Rows {
		row := &f.Rows[i]
		payload := f.rowPayload(*row)
		var res resource.Result
		if row.ID.IsSaved() {
			if row.PID != "" {
				payload["pid"] = row.PID
			}
			res = b.Detail.Update(ctx, row.ID.ServerID(), payload)
		} else {
			payload["pid"] = nil
			res = b.Detail.Update(ctx, 0, payload)
		}
		if !res.Success {
			return &SaveError{Row: i, Result: res}
		}
		if id, token := returnedID(res); id != 0 {
			row.ID = Saved(id)
			row.PID = token
		}
	}
	f.Removed = nil
	return nil
}

func (f *PurchaseForm) saveHeader(ctx context.Context, m Mutator) error {
	payload := map[string]any{
		"nota":        strings.TrimSpace(f.Header.Nota),
		"tanggal":     f.Header.Tanggal,
		"id_supplier": f.Header.SupplierID,
		"catatan":     f.Header.Catatan,
	}
	if f.Header.KantorID != 0 {
		payload["id_kantor"] = f.Header.KantorID
	}
	if f.Header.Lampiran != nil {
		payload["lampiran"] = *f.Header.Lampiran
	}
	var res resource.Result
	if f.Header.ID == 0 {
		res = m.Create(ctx, payload)
	} else {
		if f.Header.PID != "" {
			payload["pid"] = f.Header.PID
		}
		res = m.Update(ctx, f.Header.ID, payload)
	}
	if !res.Success {
		return &SaveError{Row: -1, Result: res}
	}
	if id, token := returnedID(res); id != 0 {
		f.Header.ID, f.Header.PID = id, token
	}
	f.Header.Lampiran = nil
	return nil
}

func (f *PurchaseForm) rowPayload(r DetailRow) map[string]any {
	p := map[string]any{
		"nota":       strings.TrimSpace(f.Header.Nota),
		"item":       r.Item,
		"harga":      parsed(r.Harga),
		"persentase": parsed(r.Persentase),
		"berat":      parsed(r.Berat),
		"keterangan": r.Keterangan,
	}
	if f.Header.PID != "" {
		p["pid_pembelian"] = f.Header.PID
	} else {
		p["id_pembelian"] = f.Header.ID
	}
	if r.KlasifikasiID != "" {
		if n, err := strconv.ParseInt(r.KlasifikasiID, 10, 64); err == nil {
			p["id_klasifikasi"] = n
		}
	}
	return p
}

func parsed(s string) string {
	d, _ := locale.ParseNumber(s)
	return d.String()
}

func returnedID(res resource.Result) (int64, string) {
	rec, err := resource.DecodeJSON[resource.Record](res.Data)
	if err != nil {
		return 0, ""
	}
	return rec.ID(), rec.PID()
}

// RemoveRow drops row i. Saved rows are deleted on the server first and
// kept when the server refuses.
func (f *PurchaseForm) RemoveRow(ctx context.Context, b Backend, i int) error {
	if i < 0 || i >= len(f.Rows) {
		return ErrNoRow
	}
	row := f.Rows[i]
	if row.ID.IsSaved() {
		if res := b.Detail.Delete(ctx, row.ID.ServerID()); !res.Success {
			return &SaveError{Row: i, Result: res}
		}
		f.Removed = append(f.Removed, row.ID)
	}
	f.Rows = append(f.Rows[:i:i], f.Rows[i+1:]...)
	return nil
}

// Load fills the form for editing from a show response. The show header is
// the first candidate; others, such as the loaded list page, follow.
func (f *PurchaseForm) Load(show resource.ShowResult[resource.Record], others []resource.Record) {
	candidates := make([]resource.Record, 0, len(others)+1)
	if show.HasHeader {
		candidates = append(candidates, show.Header)
	}
	candidates = append(candidates, others...)
	var (
		header resource.Record
		kind   MatchKind
	)
	if len(show.Rows) == 0 && show.HasHeader {
		header, kind = show.Header, MatchShowHeader
	} else {
		header, kind = ResolveHeader(show.Rows, candidates, DefaultMatchers)
	}

	f.Matched = kind
	f.Header = Header{
		ID:         header.ID(),
		PID:        header.PID(),
		Nota:       header.String("nota"),
		Tanggal:    header.String("tanggal"),
		SupplierID: header.Int("id_supplier"),
		KantorID:   header.Int("id_kantor"),
		Catatan:    header.String("catatan"),
	}
	f.Rows = make([]DetailRow, 0, len(show.Rows))
	for _, d := range show.Rows {
		row := DetailRow{
			ID:            ClassifyLegacyID(d.ID()),
			PID:           d.PID(),
			Item:          d.String("item"),
			KlasifikasiID: d.String("id_klasifikasi"),
			Harga:         d.String("harga"),
			Persentase:    d.String("persentase"),
			Berat:         d.String("berat"),
			Keterangan:    d.String("keterangan"),
		}
		_ = row.Recalculate()
		if !row.ID.IsSaved() && d.ID() > f.lastID {
			f.lastID = d.ID()
		}
		f.Rows = append(f.Rows, row)
	}
	f.Removed = nil
}
