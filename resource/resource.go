// Package resource is a generic client-side list of one API resource
// family: paged fetch, search, create, update, delete and show, with an
// optional offline fallback provider.
package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/LittleKatyusha/Sapi/apiclient"
	"github.com/LittleKatyusha/Sapi/i18n"
)

const DefaultPerPage = 10

// Doer is the part of apiclient.Client a Resource uses.
type Doer interface {
	Get(ctx context.Context, path string, opts ...apiclient.RequestOption) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any, opts ...apiclient.RequestOption) (apiclient.Envelope, error)
	ClearCache(ctx context.Context, key string)
}

// Config describes one resource family. Only Base is required; the paths
// default to Base + "/data", "/store", "/update", "/hapus" and "/show".
type Config[T Entity] struct {
	Base       string
	ListPath   string
	CreatePath string
	UpdatePath string
	DeletePath string
	ShowPath   string
	// Normalize decodes one list element; DecodeJSON by default.
	Normalize func(json.RawMessage) (T, error)
	PerPage   int
	// Cache serves list GETs through the client cache. The draw counter
	// is then pinned to 1 so equal queries share a cache key.
	Cache    bool
	Fallback Provider[T]
	Logger   *log.Logger
}

func (c *Config[T]) defaults() {
	base := strings.TrimSuffix(c.Base, "/")
	set := func(p *string, suffix string) {
		if *p == "" {
			*p = base + "/" + suffix
		}
	}
	set(&c.ListPath, "data")
	set(&c.CreatePath, "store")
	set(&c.UpdatePath, "update")
	set(&c.DeletePath, "hapus")
	set(&c.ShowPath, "show")
	if c.Normalize == nil {
		c.Normalize = DecodeJSON[T]
	}
	if c.PerPage <= 0 {
		c.PerPage = DefaultPerPage
	}
}

// Order sorts a list by one column.
type Order struct {
	Column string
	Desc   bool
}

// Query parameters of FetchList.
type Query struct {
	Page    int
	PerPage int
	Search  string
	Filter  map[string]string
	Order   *Order
	// Force drops cached pages of this list before fetching.
	Force bool
}

func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	return q
}

// Result is the outcome of a mutation. Failures never panic or return an
// error value; Message holds the text to show and Err the cause.
type Result struct {
	Success bool
	Message string
	Data    json.RawMessage
	Err     error
}

// ShowResult is the response of Show.
type ShowResult[T Entity] struct {
	Rows      []T
	Header    Record
	HasHeader bool
}

// Resource holds the loaded page of one resource family.
type Resource[T Entity] struct {
	client Doer
	cfg    Config[T]

	mu      sync.Mutex
	items   []T
	page    Pagination
	loading bool
	err     error
	demo    bool
	last    Query
	draw    int
}

func New[T Entity](client Doer, cfg Config[T]) *Resource[T] {
	cfg.defaults()
	return &Resource[T]{
		client: client,
		cfg:    cfg,
		items:  []T{},
		page:   NewPagination(1, cfg.PerPage, 0),
		last:   Query{Page: 1, PerPage: cfg.PerPage},
	}
}

// Items returns a copy of the loaded page.
func (r *Resource[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Resource[T]) Pagination() Pagination {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.page
}

func (r *Resource[T]) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Err is the error of the last fetch, nil after a successful one.
func (r *Resource[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Demo reports whether the items come from the fallback provider.
func (r *Resource[T]) Demo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.demo
}

// ErrMessage is Err rendered for end users.
func (r *Resource[T]) ErrMessage() string {
	return apiclient.UserMessage(r.Err())
}

// FetchList loads one page. It returns at once, with nil, while another
// fetch of this resource is running. On failure the list is emptied and,
// with a fallback provider, filled from it.
func (r *Resource[T]) FetchList(ctx context.Context, q Query) error {
	q = q.normalized()
	r.mu.Lock()
	if r.loading {
		r.mu.Unlock()
		return nil
	}
	r.loading = true
	r.draw++
	draw := r.draw
	if r.cfg.Cache {
		draw = 1
	}
	r.last = q
	r.mu.Unlock()

	if q.Force {
		r.client.ClearCache(ctx, r.cfg.ListPath)
	}
	opts := []apiclient.RequestOption{apiclient.Params(listParams(q, draw))}
	if r.cfg.Cache {
		opts = append(opts, apiclient.Cached())
	}
	rows, total, err := r.fetch(ctx, opts)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	if err != nil {
		r.err = err
		r.items = []T{}
		r.page = NewPagination(q.Page, q.PerPage, 0)
		r.demo = false
		if r.cfg.Fallback != nil {
			r.items, total = r.cfg.Fallback.List(q)
			r.page = NewPagination(q.Page, q.PerPage, total)
			r.demo = true
			r.logf("%s: using fallback data: %v", r.cfg.ListPath, err)
		}
		return err
	}
	r.err = nil
	r.demo = false
	r.items = rows
	r.page = NewPagination(q.Page, q.PerPage, total)
	return nil
}

// Refresh re-fetches the last query, bypassing the cache.
func (r *Resource[T]) Refresh(ctx context.Context) error {
	r.mu.Lock()
	q := r.last
	r.mu.Unlock()
	q.Force = true
	return r.FetchList(ctx, q)
}

func listParams(q Query, draw int) url.Values {
	v := url.Values{}
	v.Set("draw", strconv.Itoa(draw))
	v.Set("start", strconv.Itoa((q.Page-1)*q.PerPage))
	v.Set("length", strconv.Itoa(q.PerPage))
	v.Set("search[value]", q.Search)
	if q.Order != nil && q.Order.Column != "" {
		v.Set("order[0][column]", q.Order.Column)
		dir := "asc"
		if q.Order.Desc {
			dir = "desc"
		}
		v.Set("order[0][dir]", dir)
	}
	for k, val := range q.Filter {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

type listBody struct {
	Data            json.RawMessage `json:"data"`
	RecordsTotal    *int            `json:"recordsTotal"`
	RecordsFiltered *int            `json:"recordsFiltered"`
}

func (r *Resource[T]) fetch(ctx context.Context, opts []apiclient.RequestOption) ([]T, int, error) {
	body, err := r.client.Get(ctx, r.cfg.ListPath, opts...)
	if err != nil {
		return nil, 0, err
	}
	var lb listBody
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		lb.Data = trimmed
	} else if err := json.Unmarshal(body, &lb); err != nil {
		return nil, 0, invalid(r.cfg.ListPath, err)
	}
	rows, err := r.decodeRows(lb.Data)
	if err != nil {
		return nil, 0, invalid(r.cfg.ListPath, err)
	}
	total := len(rows)
	switch {
	case lb.RecordsFiltered != nil:
		total = *lb.RecordsFiltered
	case lb.RecordsTotal != nil:
		total = *lb.RecordsTotal
	}
	return rows, total, nil
}

// decodeRows accepts an array or a single object.
func (r *Resource[T]) decodeRows(data json.RawMessage) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("missing data")
	}
	var raws []json.RawMessage
	if data[0] == '{' {
		raws = []json.RawMessage{data}
	} else if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	rows := make([]T, 0, len(raws))
	for _, raw := range raws {
		v, err := r.cfg.Normalize(raw)
		if err != nil {
			return nil, err
		}
		rows = append(rows, v)
	}
	return rows, nil
}

func invalid(path string, err error) error {
	return &apiclient.Error{Kind: apiclient.ErrInvalidResponse, Method: "GET", Path: path, Err: err}
}

// Create stores a new record and re-fetches the current page.
func (r *Resource[T]) Create(ctx context.Context, payload any) Result {
	env, err := r.client.Post(ctx, r.cfg.CreatePath, payload)
	if err != nil {
		return failed(err)
	}
	r.resync(ctx)
	return Result{Success: true, Message: env.Message, Data: env.Data}
}

// Update sends payload for the record with id. The target is named by the
// local record's pid when it has one, else by id; id 0 sends a null pid,
// which asks the server to create a new child under the parent carried in
// payload. After the server accepts, the local record is patched and the
// page re-fetched.
func (r *Resource[T]) Update(ctx context.Context, id int64, payload map[string]any) Result {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	if _, explicit := body["pid"]; !explicit {
		switch token := r.pidOf(id); {
		case token != "":
			body["pid"] = token
		case id > 0:
			body["id"] = id
		default:
			body["pid"] = nil
		}
	}
	env, err := r.client.Post(ctx, r.cfg.UpdatePath, body)
	if err != nil {
		return failed(err)
	}
	r.patch(id, payload, env.Data)
	r.resync(ctx)
	return Result{Success: true, Message: env.Message, Data: env.Data}
}

// Delete removes the record with id. When the current page becomes empty
// and is not the first, the previous page is loaded. In demo mode the
// record is removed from the fallback provider.
func (r *Resource[T]) Delete(ctx context.Context, id int64) Result {
	if r.Demo() && r.cfg.Fallback != nil {
		if !r.cfg.Fallback.Remove(id) {
			return Result{Message: i18n.T(i18n.DefaultLang, "not_found"), Err: apiclient.ErrNotFound}
		}
		q := r.removeLocal(id)
		rows, total := r.cfg.Fallback.List(q)
		r.mu.Lock()
		r.items, r.page = rows, NewPagination(q.Page, q.PerPage, total)
		r.mu.Unlock()
		return Result{Success: true, Message: i18n.T(i18n.DefaultLang, "deleted")}
	}

	body := map[string]any{"id": id}
	if token := r.pidOf(id); token != "" {
		body = map[string]any{"pid": token}
	}
	env, err := r.client.Post(ctx, r.cfg.DeletePath, body)
	if err != nil {
		return failed(err)
	}
	r.removeLocal(id)
	r.resync(ctx)
	return Result{Success: true, Message: env.Message, Data: env.Data}
}

// Show loads one record with its rows and optional header.
func (r *Resource[T]) Show(ctx context.Context, id int64) (ShowResult[T], error) {
	body := map[string]any{"id": id}
	if token := r.pidOf(id); token != "" {
		body = map[string]any{"pid": token}
	}
	return r.show(ctx, body)
}

// ShowPID is Show for a pid token known by the caller.
func (r *Resource[T]) ShowPID(ctx context.Context, token string) (ShowResult[T], error) {
	return r.show(ctx, map[string]any{"pid": token})
}

func (r *Resource[T]) show(ctx context.Context, body map[string]any) (ShowResult[T], error) {
	var res ShowResult[T]
	env, err := r.client.Post(ctx, r.cfg.ShowPath, body)
	if err != nil {
		return res, err
	}
	if res.Rows, err = r.decodeRows(env.Data); err != nil {
		return res, invalid(r.cfg.ShowPath, err)
	}
	if env.HasHeader() {
		if err := json.Unmarshal(env.Header, &res.Header); err != nil {
			return res, invalid(r.cfg.ShowPath, err)
		}
		res.HasHeader = true
	}
	return res, nil
}

func (r *Resource[T]) pidOf(id int64) string {
	if id == 0 {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.EntityID() == id {
			return it.EntityPID()
		}
	}
	return ""
}

// patch replaces the local record with the server copy when one was sent,
// or merges payload into it for untyped records.
func (r *Resource[T]) patch(id int64, payload map[string]any, data json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.EntityID() != id {
			continue
		}
		if len(bytes.TrimSpace(data)) > 0 && data[0] == '{' {
			if v, err := r.cfg.Normalize(data); err == nil {
				r.items[i] = v
				return
			}
		}
		if rec, ok := any(it).(Record); ok {
			if merged, ok := any(rec.Merge(payload)).(T); ok {
				r.items[i] = merged
			}
		}
		return
	}
}

// removeLocal drops id from the page and returns the query to reload,
// stepped back one page when the current one became empty.
func (r *Resource[T]) removeLocal(id int64) Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.EntityID() == id {
			r.items = append(r.items[:i:i], r.items[i+1:]...)
			r.page = NewPagination(r.page.CurrentPage, r.page.PerPage, r.page.TotalItems-1)
			break
		}
	}
	if len(r.items) == 0 && r.page.CurrentPage > 1 {
		r.page = NewPagination(r.page.CurrentPage-1, r.page.PerPage, r.page.TotalItems)
	}
	r.last.Page = r.page.CurrentPage
	return r.last
}

// resync reloads the last query after a mutation. Its error stays in Err.
func (r *Resource[T]) resync(ctx context.Context) {
	if err := r.Refresh(ctx); err != nil {
		r.logf("%s: resync: %v", r.cfg.ListPath, err)
	}
}

func failed(err error) Result {
	return Result{Success: false, Message: apiclient.UserMessage(err), Err: err}
}

func (r *Resource[T]) logf(format string, args ...any) {
	if r.cfg.Logger != nil {
		r.cfg.Logger.Printf(format, args...)
	}
}
