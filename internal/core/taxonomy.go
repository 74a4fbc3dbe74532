package core

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Flow tags a category as contributing positively or negatively to cash position.
type Flow int

const (
	Outflow Flow = iota
	Inflow
)

func (f Flow) String() string {
	switch f {
	case Inflow:
		return "inflow"
	case Outflow:
		return "outflow"
	default:
		return "unknown"
	}
}

// Default category sets, in display order.
var (
	DefaultInflowCategories = []string{
		"مبيعات نقدية",
		"تحصيلات من مبيعات آجلة",
		"إيرادات تشغيلية أخرى",
		"قروض مستلمة",
		"زيادة رأس المال",
		"مبيعات أصول",
		"فوائد مكتسبة",
		"مردودات / استردادات ضريبية",
	}

	DefaultOutflowCategories = []string{
		"مدفوعات مواد خام",
		"رواتب وأجور",
		"إيجار",
		"خدمات (كهرباء، ماء، إلخ)",
		"مصاريف مكتبية",
		"شراء قطع غيار",
		"صيانة",
		"نقل / وقود",
		"تسويق وإعلان",
		"ضرائب مدفوعة",
		"مدفوعات تأمين",
	}

	MonthNames = [12]string{
		"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
		"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
	}
)

// Taxonomy is the static classification of category names. It is built once
// and only read afterwards.
type Taxonomy struct {
	inflow  []string
	outflow []string
	flows   map[string]Flow
}

// NewTaxonomy builds a taxonomy from two disjoint category sets.
func NewTaxonomy(inflow, outflow []string) (*Taxonomy, error) {
	t := &Taxonomy{
		inflow:  dedupe(inflow),
		outflow: dedupe(outflow),
		flows:   make(map[string]Flow),
	}
	for _, c := range t.inflow {
		t.flows[c] = Inflow
	}
	for _, c := range t.outflow {
		if _, dup := t.flows[c]; dup {
			return nil, fmt.Errorf("category %q is both inflow and outflow", c)
		}
		t.flows[c] = Outflow
	}
	return t, nil
}

// DefaultTaxonomy returns the built-in category sets.
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(DefaultInflowCategories, DefaultOutflowCategories)
	if err != nil {
		panic(err)
	}
	return t
}

// TaxonomyFromFiles reads seed_inflow.txt and seed_outflow.txt from dir.
// A missing or empty file falls back to the corresponding default set.
func TaxonomyFromFiles(dir string) (*Taxonomy, error) {
	inflow := readLines(filepath.Join(dir, "seed_inflow.txt"))
	outflow := readLines(filepath.Join(dir, "seed_outflow.txt"))
	if len(inflow) == 0 {
		inflow = DefaultInflowCategories
	}
	if len(outflow) == 0 {
		outflow = DefaultOutflowCategories
	}
	return NewTaxonomy(inflow, outflow)
}

// FlowOf resolves the flow of a category. Unknown categories count as outflow.
func (t *Taxonomy) FlowOf(category string) Flow {
	if f, ok := t.flows[category]; ok {
		return f
	}
	return Outflow
}

// Known reports whether the category belongs to one of the configured sets.
func (t *Taxonomy) Known(category string) bool {
	_, ok := t.flows[category]
	return ok
}

// Categories returns the configured categories of one flow in display order.
func (t *Taxonomy) Categories(f Flow) []string {
	if f == Inflow {
		return append([]string(nil), t.inflow...)
	}
	return append([]string(nil), t.outflow...)
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and repeats, preserving input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
