package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/LittleKatyusha/Sapi/apiclient"
	"github.com/LittleKatyusha/Sapi/internal/demo"
	"github.com/LittleKatyusha/Sapi/internal/locale"
	"github.com/LittleKatyusha/Sapi/resource"
)

// columns lists the fields printed per resource; others print id, pid and
// the first few keys in name order.
var columns = map[string][]string{
	"master/supplier":  {"id", "kode", "nama", "jenis", "telepon"},
	"master/kantor":    {"id", "kode", "nama", "alamat"},
	"master/parameter": {"id", "grup", "kode", "nama", "nilai"},
	"pembelian":        {"id", "nota", "tanggal", "id_supplier", "total_berat", "total_harga"},
	"pembelian/detail": {"id", "nota", "item", "harga", "persentase", "hpp", "berat", "total_harga"},
	"pembayaran":       {"id", "nota", "tanggal", "metode", "jumlah"},
	"hr/pegawai":       {"id", "nik", "nama", "jabatan", "aktif"},
}

var moneyColumns = map[string]bool{"harga": true, "hpp": true, "total_harga": true, "jumlah": true}

func columnsFor(base string, rows []resource.Record) []string {
	if c, ok := columns[base]; ok {
		return c
	}
	if strings.HasPrefix(base, "pembelian/") {
		return columns["pembelian"]
	}
	seen := map[string]bool{}
	for _, r := range rows {
		for k := range r {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		if k != "id" && k != "pid" && k != "pubid" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) > 5 {
		keys = keys[:5]
	}
	return append([]string{"id"}, keys...)
}

func (e *env) open(base string) *resource.Resource[resource.Record] {
	cfg := resource.Config[resource.Record]{Base: base, Cache: true}
	if e.cfg.Client.DemoOnFail {
		if p := demo.For(base); p != nil {
			cfg.Fallback = p
		}
	}
	return resource.New[resource.Record](e.client, cfg)
}

func (e *env) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.String("u", "", "username")
	pass := fs.String("p", os.Getenv("PROCURECTL_PASSWORD"), "password (default $PROCURECTL_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *pass == "" {
		return errors.New("login: -u and -p are required")
	}
	s, err := e.client.Login(ctx, *user, *pass)
	if err != nil {
		return errors.New(apiclient.UserMessage(err))
	}
	fmt.Fprintf(e.out, "signed in as %v, token valid until %s\n", s.User["username"], s.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func (e *env) logout(ctx context.Context) error {
	if err := e.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "signed out")
	return nil
}

type filterFlag map[string]string

func (f filterFlag) String() string { return fmt.Sprint(map[string]string(f)) }

func (f filterFlag) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	if !ok || k == "" {
		return fmt.Errorf("filter %q: want key=value", v)
	}
	f[k] = val
	return nil
}

func (e *env) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", resource.DefaultPerPage, "rows per page")
	search := fs.String("search", "", "search term")
	order := fs.String("order", "", "order column, prefix with - for descending")
	refresh := fs.Bool("refresh", false, "bypass the response cache")
	filter := filterFlag{}
	fs.Var(filter, "filter", "key=value filter, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("list: RESOURCE is required")
	}
	base := strings.Trim(fs.Arg(0), "/")
	q := resource.Query{Page: *page, PerPage: *perPage, Search: *search, Filter: filter, Force: *refresh}
	if *order != "" {
		q.Order = &resource.Order{Column: strings.TrimPrefix(*order, "-"), Desc: strings.HasPrefix(*order, "-")}
	}

	r := e.open(base)
	if err := r.FetchList(ctx, q); err != nil && !r.Demo() {
		return errors.New(r.ErrMessage())
	}
	if r.Demo() {
		fmt.Fprintf(e.out, "! %s; showing sample data\n", r.ErrMessage())
	}
	rows := r.Items()
	e.table(columnsFor(base, rows), rows)
	p := r.Pagination()
	fmt.Fprintf(e.out, "page %d/%d, %d records\n", p.CurrentPage, p.TotalPages, p.TotalItems)
	return nil
}

func (e *env) show(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("show: RESOURCE PID are required")
	}
	base := strings.Trim(args[0], "/")
	res, err := e.open(base).ShowPID(ctx, args[1])
	if err != nil {
		return errors.New(apiclient.UserMessage(err))
	}
	if res.HasHeader {
		keys := make([]string, 0, len(res.Header))
		for k := range res.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
		for _, k := range keys {
			fmt.Fprintf(tw, "%s:\t%s\n", k, cell(k, res.Header))
		}
		_ = tw.Flush()
		fmt.Fprintln(e.out)
		base = "pembelian/detail"
	}
	e.table(columnsFor(base, res.Rows), res.Rows)
	return nil
}

func (e *env) delete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("delete: RESOURCE ID are required")
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("delete: invalid id %q", args[1])
	}
	res := e.open(strings.Trim(args[0], "/")).Delete(ctx, id)
	if !res.Success {
		return errors.New(res.Message)
	}
	fmt.Fprintln(e.out, res.Message)
	return nil
}

func (e *env) table(cols []string, rows []resource.Record) {
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(cols, "\t")))
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cell(c, r)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func cell(col string, r resource.Record) string {
	s := r.String(col)
	if moneyColumns[col] && s != "" {
		if d, err := locale.ParseNumber(s); err == nil {
			return locale.FormatRupiah(d)
		}
	}
	return s
}
