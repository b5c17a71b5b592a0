package models

import "testing"

func TestSanitizeText(t *testing.T) {
	cases := map[string]string{
		"  Boracay   Trip  ": "Boracay Trip",
		"a\t\nb":             "a b",
		"   ":                "",
		"plain":              "plain",

		// unicode spaces
		"Boracay\u00a0\u00a0 Trip\u2003\u2003x": "Boracay Trip x",
		"\ufeff\u00a0Kyoto\vAutumn\u3000":       "Kyoto Autumn",
	}
	for in, want := range cases {
		if got := SanitizeText(in); got != want {
			t.Errorf("SanitizeText(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Cebu & Bohol Signature": "cebu-bohol-signature",
		"  --Hello World--  ":    "hello-world",
		"!!!":                    "package",
		"Iloilo-Guimaras":        "iloilo-guimaras",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory("local"); !ok || c != Local {
		t.Errorf("ParseCategory(local) = %q, %v", c, ok)
	}
	if _, ok := ParseCategory("Local"); ok {
		t.Error("ParseCategory must be case sensitive")
	}
	if _, ok := ParseCategory(""); ok {
		t.Error("empty category accepted")
	}
}

func TestCatalog_FindRemovePrepend(t *testing.T) {
	c := Catalog{
		Local:         []PackageRecord{{ID: "a", Category: Local}, {ID: "b", Category: Local}},
		International: []PackageRecord{{ID: "c", Category: International}},
	}

	cat, i, ok := c.Find("b")
	if !ok || cat != Local || i != 1 {
		t.Fatalf("Find(b) = %q, %d, %v", cat, i, ok)
	}

	rec := c.Remove(cat, i)
	if rec.ID != "b" || len(c.Local) != 1 {
		t.Fatalf("Remove returned %+v, local=%v", rec, c.Local)
	}

	rec.Category = International
	c.Prepend(rec)
	if c.International[0].ID != "b" || len(c.International) != 2 {
		t.Errorf("Prepend did not place record first: %+v", c.International)
	}

	if _, _, ok := c.Find("zzz"); ok {
		t.Error("Find reported unknown id")
	}
}

func TestPaginate(t *testing.T) {
	records := make([]PackageRecord, 20)
	for i := range records {
		records[i] = PackageRecord{ID: string(rune('a' + i))}
	}

	tests := []struct {
		raw       string
		wantPage  int
		wantLen   int
		wantStart int
		wantEnd   int
	}{
		{"", 1, 6, 1, 6},
		{"2", 2, 6, 7, 12},
		{"4", 4, 2, 19, 20},
		{"99", 4, 2, 19, 20},
		{"0", 1, 6, 1, 6},
		{"-3", 1, 6, 1, 6},
		{"abc", 1, 6, 1, 6},
		{"2abc", 2, 6, 7, 12},
		{" +3", 3, 6, 13, 18},
		{"1e3", 1, 6, 1, 6},
		{"99999999999999999999999", 4, 2, 19, 20},
		{"-99999999999999999999999", 1, 6, 1, 6},
	}
	for _, tt := range tests {
		p := Paginate(Local, records, tt.raw, PageSize)
		if p.Page != tt.wantPage || len(p.Packages) != tt.wantLen || p.Start != tt.wantStart || p.End != tt.wantEnd {
			t.Errorf("Paginate(%q) = page %d len %d [%d-%d]; want page %d len %d [%d-%d]",
				tt.raw, p.Page, len(p.Packages), p.Start, p.End, tt.wantPage, tt.wantLen, tt.wantStart, tt.wantEnd)
		}
		if p.TotalPages != 4 || p.Total != 20 {
			t.Errorf("Paginate(%q) totals = %d/%d", tt.raw, p.TotalPages, p.Total)
		}
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate(International, nil, "3", PageSize)
	if p.Page != 1 || p.TotalPages != 0 || len(p.Packages) != 0 || p.Start != 0 || p.End != 0 {
		t.Errorf("unexpected empty page: %+v", p)
	}
}
