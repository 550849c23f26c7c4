// Package datatable reads DataTables server-side parameters and applies them
// to gorm queries.
package datatable

import (
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultLength = 10
	MaxLength     = 1000
)

// Request is a parsed DataTables query.
type Request struct {
	Draw     int
	Start    int
	Length   int // -1 for all rows
	Search   string
	OrderBy  string
	OrderAsc bool
	Filters  map[string]string
}

// Parse reads draw, start, length, search[value] and order[0][...]. The order
// column may be an index into columns[n][data] or a field name. Any other
// plain parameter is kept as a candidate filter.
func Parse(q url.Values) Request {
	req := Request{
		Draw:     atoi(q.Get("draw"), 0),
		Start:    atoi(q.Get("start"), 0),
		Length:   atoi(q.Get("length"), DefaultLength),
		Search:   strings.TrimSpace(q.Get("search[value]")),
		OrderAsc: !strings.EqualFold(q.Get("order[0][dir]"), "desc"),
		Filters:  map[string]string{},
	}
	if req.Search == "" {
		req.Search = strings.TrimSpace(q.Get("search"))
	}
	if req.Start < 0 {
		req.Start = 0
	}
	if req.Length == 0 || req.Length < -1 {
		req.Length = DefaultLength
	}
	if req.Length > MaxLength {
		req.Length = MaxLength
	}
	col := q.Get("order[0][column]")
	if n, err := strconv.Atoi(col); err == nil {
		col = q.Get("columns[" + strconv.Itoa(n) + "][data]")
	}
	req.OrderBy = col
	for k, v := range q {
		if strings.ContainsAny(k, "[]") || len(v) == 0 || v[0] == "" {
			continue
		}
		switch k {
		case "draw", "start", "length", "search", "_":
			continue
		}
		req.Filters[k] = v[0]
	}
	return req
}

func atoi(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Columns describes which columns of a table the query may touch.
type Columns struct {
	// Search entries are column names, matched case-insensitively with LIKE,
	// or SQL fragments containing a single ? placeholder.
	Search []string
	// Sort maps a client field name to a column.
	Sort map[string]string
	// Filters maps a query parameter to a column compared for equality.
	Filters      map[string]string
	DefaultOrder string
}

// Page is one response page.
type Page[T any] struct {
	Rows     []T
	Total    int64
	Filtered int64
}

// applySearch adds the search clause of req to tx.
func (s Columns) applySearch(tx *gorm.DB, req Request) *gorm.DB {
	if req.Search == "" || len(s.Search) == 0 {
		return tx
	}
	like := "%" + strings.ToLower(req.Search) + "%"
	var clauses []string
	var args []any
	for _, c := range s.Search {
		if strings.Contains(c, "?") {
			clauses = append(clauses, c)
		} else {
			clauses = append(clauses, "LOWER("+c+") LIKE ?")
		}
		args = append(args, like)
	}
	return tx.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func (s Columns) applyFilters(tx *gorm.DB, req Request) *gorm.DB {
	for param, col := range s.Filters {
		if v, ok := req.Filters[param]; ok {
			tx = tx.Where(col+" = ?", v)
		}
	}
	return tx
}

func (s Columns) order(req Request) string {
	col, ok := s.Sort[req.OrderBy]
	if !ok {
		if s.DefaultOrder != "" {
			return s.DefaultOrder
		}
		return "id DESC"
	}
	if req.OrderAsc {
		return col + " ASC"
	}
	return col + " DESC"
}

// Query runs the counted, filtered, ordered and paged query. base must carry
// the model (db.Model(&T{})) and any fixed scope.
func Query[T any](base *gorm.DB, s Columns, req Request) (Page[T], error) {
	var page Page[T]
	if err := base.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return page, err
	}
	filtered := s.applySearch(s.applyFilters(base.Session(&gorm.Session{}), req), req)
	if err := filtered.Session(&gorm.Session{}).Count(&page.Filtered).Error; err != nil {
		return page, err
	}
	q := filtered.Order(s.order(req))
	if req.Length > 0 {
		q = q.Offset(req.Start).Limit(req.Length)
	}
	page.Rows = []T{}
	if err := q.Find(&page.Rows).Error; err != nil {
		return page, err
	}
	return page, nil
}
