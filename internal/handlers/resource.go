package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/LittleKatyusha/Sapi/httpx"
	"github.com/LittleKatyusha/Sapi/i18n"
	"github.com/LittleKatyusha/Sapi/internal/datatable"
	"github.com/LittleKatyusha/Sapi/internal/models"
	"github.com/LittleKatyusha/Sapi/internal/pid"
	"github.com/LittleKatyusha/Sapi/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Endpoints is the handler set mounted for every resource family.
type Endpoints interface {
	List(w http.ResponseWriter, r *http.Request)
	Store(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Show(w http.ResponseWriter, r *http.Request)
}

type validator interface {
	Validate() validation.Violations
}

// Options customizes a Resource.
type Options[T any] struct {
	Table datatable.Columns
	// Scope narrows every query, e.g. to one purchase kind.
	Scope   func(*gorm.DB) *gorm.DB
	Preload []string
	// Prepare runs before validation on create and update.
	Prepare func(tx *gorm.DB, rec *T, creating bool) error
	// AfterWrite runs in the write transaction after create, update and delete.
	AfterWrite func(tx *gorm.DB, rec *T) error
	// BeforeDelete runs in the delete transaction before the record goes.
	BeforeDelete func(tx *gorm.DB, rec *T) error
	// ShowData returns the data rows and header of a show response. Without
	// it data holds the record alone and there is no header.
	ShowData func(tx *gorm.DB, rec *T) (data any, header any, err error)
	// UniqueField names the field reported when an insert hits a unique index.
	UniqueField string
	FileField   string
	Uploads     *Uploads
}

// Resource serves the data/store/update/hapus/show endpoints of one model.
type Resource[T any, PT interface {
	*T
	models.Referenced
}] struct {
	db   *gorm.DB
	pids *pid.Codec
	opt  Options[T]
}

func NewResource[T any, PT interface {
	*T
	models.Referenced
}](db *gorm.DB, pids *pid.Codec, opt Options[T]) *Resource[T, PT] {
	return &Resource[T, PT]{db: db, pids: pids, opt: opt}
}

func (h *Resource[T, PT]) scoped(tx *gorm.DB) *gorm.DB {
	if h.opt.Scope != nil {
		tx = h.opt.Scope(tx)
	}
	for _, p := range h.opt.Preload {
		tx = tx.Preload(p)
	}
	return tx
}

// decorate fills the pid tokens of rec before it is serialized.
func (h *Resource[T, PT]) decorate(rec PT) {
	Decorate(h.pids, rec)
}

// Decorate fills the pid of rec and, for child records, the parent pid.
func Decorate(pids *pid.Codec, rec models.Referenced) {
	rec.SetPID(pids.Encode(rec.GetID()))
	if c, ok := rec.(models.Child); ok && c.ParentID() != 0 {
		c.SetParentPID(pids.Encode(c.ParentID()))
	}
}

// List answers a DataTables query.
func (h *Resource[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	req := datatable.Parse(r.URL.Query())
	if _, isChild := any(PT(new(T))).(models.Child); isChild {
		if token := req.Filters["pid_pembelian"]; token != "" {
			id, err := h.pids.Decode(token)
			if err != nil {
				h.fail(w, r, http.StatusNotFound, "not_found")
				return
			}
			req.Filters["id_pembelian"] = uintString(id)
		}
	}
	page, err := datatable.Query[T](h.scoped(h.db.Model(new(T))), h.opt.Table, req)
	if err != nil {
		log.Printf("list %T: %v", *new(T), err)
		h.fail(w, r, http.StatusInternalServerError, "server_error")
		return
	}
	for i := range page.Rows {
		h.decorate(PT(&page.Rows[i]))
	}
	httpx.JSON(w, http.StatusOK, httpx.Table{
		Draw:            req.Draw,
		RecordsTotal:    page.Total,
		RecordsFiltered: page.Filtered,
		Data:            page.Rows,
	})
}

// Store creates a record.
func (h *Resource[T, PT]) Store(w http.ResponseWriter, r *http.Request) {
	p, ok := h.read(w, r)
	if !ok {
		return
	}
	h.create(w, r, p)
}

func (h *Resource[T, PT]) create(w http.ResponseWriter, r *http.Request, p payload) {
	rec := PT(new(T))
	if err := p.decode(rec); err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	rec.SetID(0)
	if !h.resolveParent(w, r, rec) {
		return
	}
	if !h.attach(w, r, rec, p) {
		return
	}
	h.write(w, r, rec, true)
}

// Update modifies the record named by pid (or id). A null pid on a child
// resource with a parent reference creates a new child instead; a pid that
// does not decode is not found.
func (h *Resource[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.read(w, r)
	if !ok {
		return
	}
	id, kind := h.target(p)
	switch kind {
	case targetInvalid:
		h.fail(w, r, http.StatusNotFound, "not_found")
		return
	case targetAbsent:
		if _, isChild := any(PT(new(T))).(models.Child); isChild && (p.str("pid_pembelian") != "" || p.id("id_pembelian") != 0) {
			h.create(w, r, p)
			return
		}
		httpx.JSONError(w, http.StatusUnprocessableEntity, i18n.T(h.lang(r), "validation_failed"),
			map[string]string{"pid": i18n.Field(h.lang(r), "pid", "required")})
		return
	}
	rec, ok := h.find(w, r, id)
	if !ok {
		return
	}
	if err := p.decode(rec); err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	rec.SetID(id)
	if !h.resolveParent(w, r, rec) {
		return
	}
	if !h.attach(w, r, rec, p) {
		return
	}
	h.write(w, r, rec, false)
}

// Delete soft-deletes the record named by pid (or id).
func (h *Resource[T, PT]) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.read(w, r)
	if !ok {
		return
	}
	id, kind := h.target(p)
	if kind != targetFound {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return
	}
	rec, ok := h.find(w, r, id)
	if !ok {
		return
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if h.opt.BeforeDelete != nil {
			if err := h.opt.BeforeDelete(tx, rec); err != nil {
				return err
			}
		}
		if err := tx.Delete(rec).Error; err != nil {
			return err
		}
		if h.opt.AfterWrite != nil {
			return h.opt.AfterWrite(tx, rec)
		}
		return nil
	})
	if err != nil {
		log.Printf("delete %T %d: %v", *rec, id, err)
		h.fail(w, r, http.StatusInternalServerError, "server_error")
		return
	}
	httpx.OK(w, http.StatusOK, i18n.T(h.lang(r), "deleted"), nil)
}

// Show returns one record; purchase resources answer with their details as
// data and the header alongside.
func (h *Resource[T, PT]) Show(w http.ResponseWriter, r *http.Request) {
	p, ok := h.read(w, r)
	if !ok {
		return
	}
	id, kind := h.target(p)
	if kind != targetFound {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return
	}
	rec, ok := h.find(w, r, id)
	if !ok {
		return
	}
	h.decorate(rec)
	env := httpx.Envelope{Status: httpx.StatusOK, Data: []T{*rec}}
	if h.opt.ShowData != nil {
		data, header, err := h.opt.ShowData(h.db, rec)
		if err != nil {
			log.Printf("show %T %d: %v", *rec, id, err)
			h.fail(w, r, http.StatusInternalServerError, "server_error")
			return
		}
		env.Data, env.Header = data, header
	}
	httpx.JSON(w, http.StatusOK, env)
}

func (h *Resource[T, PT]) read(w http.ResponseWriter, r *http.Request) (payload, bool) {
	maxBytes := int64(10 << 20)
	if h.opt.Uploads != nil && h.opt.Uploads.MaxBytes > 0 {
		maxBytes = h.opt.Uploads.MaxBytes + 1<<20
	}
	p, err := readPayload(r, new(T), h.opt.FileField, maxBytes)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_json")
		return p, false
	}
	return p, true
}

// targetKind tells how a payload names its record.
type targetKind int

const (
	targetAbsent  targetKind = iota // neither pid nor id
	targetFound                     // pid decoded, or a raw id
	targetInvalid                   // pid present but undecodable
)

// target resolves the record id from a pid token, falling back to a raw id.
// A pid that does not decode never falls back to id.
func (h *Resource[T, PT]) target(p payload) (uint, targetKind) {
	if token := p.str("pid"); token != "" {
		id, err := h.pids.Decode(token)
		if err != nil {
			return 0, targetInvalid
		}
		return id, targetFound
	}
	if id := p.id("id"); id != 0 {
		return id, targetFound
	}
	return 0, targetAbsent
}

func (h *Resource[T, PT]) find(w http.ResponseWriter, r *http.Request, id uint) (PT, bool) {
	rec := PT(new(T))
	err := h.scoped(h.db).First(rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return nil, false
	}
	if err != nil {
		log.Printf("find %T %d: %v", *rec, id, err)
		h.fail(w, r, http.StatusInternalServerError, "server_error")
		return nil, false
	}
	return rec, true
}

// resolveParent turns a parent pid into an id and checks the parent exists.
func (h *Resource[T, PT]) resolveParent(w http.ResponseWriter, r *http.Request, rec PT) bool {
	c, ok := any(rec).(models.Child)
	if !ok {
		return true
	}
	if token := c.ParentPID(); token != "" {
		id, err := h.pids.Decode(token)
		if err != nil {
			h.invalid(w, r, validation.Violations{"id_pembelian": "invalid_reference"})
			return false
		}
		c.SetParentID(id)
	}
	if c.ParentID() == 0 {
		h.invalid(w, r, validation.Violations{"id_pembelian": "required"})
		return false
	}
	var n int64
	h.db.Model(&models.Pembelian{}).Where("id = ?", c.ParentID()).Count(&n)
	if n == 0 {
		h.invalid(w, r, validation.Violations{"id_pembelian": "invalid_reference"})
		return false
	}
	return true
}

func (h *Resource[T, PT]) attach(w http.ResponseWriter, r *http.Request, rec PT, p payload) bool {
	if p.file == nil || h.opt.Uploads == nil {
		return true
	}
	u, ok := any(rec).(models.Uploadable)
	if !ok {
		return true
	}
	path, err := h.opt.Uploads.Save(p.file)
	if err != nil {
		log.Printf("upload: %v", err)
		h.invalid(w, r, validation.Violations{h.opt.FileField: "upload_failed"})
		return false
	}
	u.SetFile(path)
	return true
}

func (h *Resource[T, PT]) write(w http.ResponseWriter, r *http.Request, rec PT, creating bool) {
	var violations validation.Violations
	var invalid *InvalidError
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if h.opt.Prepare != nil {
			if err := h.opt.Prepare(tx, rec, creating); err != nil {
				return err
			}
		}
		if v, ok := any(rec).(validator); ok {
			if violations = v.Validate(); !violations.Empty() {
				return errValidation
			}
		}
		q := tx.Omit(clause.Associations)
		var err error
		if creating {
			err = q.Create(rec).Error
		} else {
			err = q.Save(rec).Error
		}
		if err != nil {
			if isUniqueViolation(err) && h.opt.UniqueField != "" {
				violations = validation.Violations{h.opt.UniqueField: "already_exists"}
				return errValidation
			}
			return err
		}
		if h.opt.AfterWrite != nil {
			return h.opt.AfterWrite(tx, rec)
		}
		return nil
	})
	switch {
	case errors.Is(err, errValidation):
		h.invalid(w, r, violations)
		return
	case errors.As(err, &invalid):
		h.invalid(w, r, invalid.Violations)
		return
	case err != nil:
		log.Printf("write %T: %v", *rec, err)
		h.fail(w, r, http.StatusInternalServerError, "server_error")
		return
	}
	// Reload so derived columns and totals reflect what was stored.
	if fresh, ok := h.reload(rec.GetID()); ok {
		rec = fresh
	}
	h.decorate(rec)
	if creating {
		httpx.OK(w, http.StatusCreated, i18n.T(h.lang(r), "created"), rec)
		return
	}
	httpx.OK(w, http.StatusOK, i18n.T(h.lang(r), "updated"), rec)
}

func (h *Resource[T, PT]) reload(id uint) (PT, bool) {
	rec := PT(new(T))
	if err := h.scoped(h.db).First(rec, id).Error; err != nil {
		return nil, false
	}
	return rec, true
}

var errValidation = errors.New("validation failed")

// InvalidError lets hooks reject a write with field violations.
type InvalidError struct {
	Violations validation.Violations
}

func (e *InvalidError) Error() string { return "invalid fields: " + strings.Join(e.Violations.Fields(), ", ") }

// Invalid builds an InvalidError for a single field.
func Invalid(field, code string) error {
	return &InvalidError{Violations: validation.Violations{field: code}}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func (h *Resource[T, PT]) lang(r *http.Request) string { return i18n.LangFromContext(r.Context()) }

func (h *Resource[T, PT]) fail(w http.ResponseWriter, r *http.Request, status int, code string) {
	httpx.JSONError(w, status, i18n.T(h.lang(r), code), nil)
}

func (h *Resource[T, PT]) invalid(w http.ResponseWriter, r *http.Request, v validation.Violations) {
	writeViolations(w, h.lang(r), v)
}

// writeViolations renders a 422 envelope. With a single violation its
// sentence becomes the message so clients can show it as is.
func writeViolations(w http.ResponseWriter, lang string, v validation.Violations) {
	errs := make(map[string]string, len(v))
	for _, f := range v.Fields() {
		errs[f] = i18n.Field(lang, f, v[f])
	}
	msg := i18n.T(lang, "validation_failed")
	if len(v) == 1 {
		for _, s := range errs {
			msg = s
		}
	}
	httpx.JSONError(w, http.StatusUnprocessableEntity, msg, errs)
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
