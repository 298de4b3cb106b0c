package achievement

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRule_RenderTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		subject string
		want    string
	}{
		{name: "with subject", title: "Excellence in {{.Subject}}", subject: "Mathematics", want: "Excellence in Mathematics"},
		{name: "no placeholder", title: "Strong overall progress", subject: "Mathematics", want: "Strong overall progress"},
		{name: "malformed template degrades to raw title", title: "Excellence in {{.Subject", want: "Excellence in {{.Subject"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := Rule{Code: "test", Title: tt.title}
			if got := rule.RenderTitle(tt.subject); got != tt.want {
				t.Errorf("RenderTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCatalog_Validate(t *testing.T) {
	valid := Rule{Code: "r1", Kind: KindSubjectScore, Threshold: 90, Title: "t"}

	tests := []struct {
		name    string
		catalog Catalog
		wantErr bool
	}{
		{name: "empty catalog", catalog: Catalog{}},
		{name: "default catalog", catalog: DefaultCatalog()},
		{name: "valid rule", catalog: Catalog{valid}},
		{name: "missing code", catalog: Catalog{{Kind: KindSubjectScore, Threshold: 90, Title: "t"}}, wantErr: true},
		{name: "missing title", catalog: Catalog{{Code: "r1", Kind: KindSubjectScore, Threshold: 90}}, wantErr: true},
		{name: "unknown kind", catalog: Catalog{{Code: "r1", Kind: "wat", Threshold: 90, Title: "t"}}, wantErr: true},
		{name: "zero threshold", catalog: Catalog{{Code: "r1", Kind: KindSubjectScore, Title: "t"}}, wantErr: true},
		{name: "score threshold above 100", catalog: Catalog{{Code: "r1", Kind: KindOverallScore, Threshold: 101, Title: "t"}}, wantErr: true},
		{name: "improvement threshold above 100 is fine", catalog: Catalog{{Code: "r1", Kind: KindSubjectImprovement, Threshold: 150, Title: "t"}}},
		{name: "subject filter on overall rule", catalog: Catalog{{Code: "r1", Kind: KindOverallScore, SubjectID: "s1", Threshold: 85, Title: "t"}}, wantErr: true},
		{name: "duplicate codes", catalog: Catalog{valid, valid}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.catalog.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(dir, "catalog.json")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
		return path
	}

	t.Run("valid file", func(t *testing.T) {
		path := write(t, `[{"code": "r1", "kind": "subject_score", "threshold": 90, "title": "Excellence in {{.Subject}}"}]`)
		catalog, err := LoadCatalog(path)
		if err != nil {
			t.Fatalf("LoadCatalog() failed: %v", err)
		}
		if len(catalog) != 1 || catalog[0].Code != "r1" {
			t.Errorf("LoadCatalog() = %+v", catalog)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		path := write(t, `{not json`)
		if _, err := LoadCatalog(path); err == nil {
			t.Error("LoadCatalog() expected an error")
		}
	})

	t.Run("invalid rule", func(t *testing.T) {
		path := write(t, `[{"code": "r1", "kind": "wat", "threshold": 90, "title": "t"}]`)
		if _, err := LoadCatalog(path); err == nil {
			t.Error("LoadCatalog() expected an error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadCatalog(filepath.Join(dir, "nope.json")); err == nil {
			t.Error("LoadCatalog() expected an error")
		}
	})
}
