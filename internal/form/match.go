package form

import (
	"strings"

	"github.com/LittleKatyusha/Sapi/resource"
)

// MatchKind names the rule that joined details to their header.
type MatchKind string

const (
	MatchPID        MatchKind = "pid"
	MatchDecodedID  MatchKind = "decoded-id"
	MatchNota       MatchKind = "nota"
	MatchDetailOnly MatchKind = "detail-only"
	// MatchShowHeader is a show response with a header and no details.
	MatchShowHeader MatchKind = "show-header"
)

// Matcher reports whether header is the parent of detail.
type Matcher struct {
	Kind  MatchKind
	Match func(header, detail resource.Record) bool
}

// DefaultMatchers are tried in order; the first hit wins.
var DefaultMatchers = []Matcher{
	{MatchPID, func(h, d resource.Record) bool {
		return h.PID() != "" && h.PID() == d.String("pid_pembelian")
	}},
	{MatchDecodedID, func(h, d resource.Record) bool {
		return h.ID() != 0 && h.ID() == d.Int("id_pembelian")
	}},
	{MatchNota, func(h, d resource.Record) bool {
		n := strings.TrimSpace(h.String("nota"))
		return n != "" && strings.EqualFold(n, strings.TrimSpace(d.String("nota")))
	}},
}

// ResolveHeader finds the header of details among candidates. Each matcher
// is tried against every candidate before the next matcher runs. Without a
// hit the header is built from the first detail.
func ResolveHeader(details, candidates []resource.Record, matchers []Matcher) (resource.Record, MatchKind) {
	if len(details) == 0 {
		return resource.Record{}, MatchDetailOnly
	}
	first := details[0]
	for _, m := range matchers {
		for _, h := range candidates {
			if h != nil && m.Match(h, first) {
				return h, m.Kind
			}
		}
	}
	return headerFromDetail(first), MatchDetailOnly
}

func headerFromDetail(d resource.Record) resource.Record {
	h := resource.Record{}
	if v := d.Int("id_pembelian"); v != 0 {
		h["id"] = float64(v)
	}
	if v := d.String("pid_pembelian"); v != "" {
		h["pid"] = v
	}
	for _, k := range []string{"nota", "tanggal", "id_supplier", "id_kantor"} {
		if d.Has(k) {
			h[k] = d[k]
		}
	}
	return h
}
