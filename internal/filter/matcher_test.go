package filter_test

import (
	"testing"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/filter"
)

// ── Default variants over titles and snippets ─────────────────────────────

func TestMatches_DefaultVariants(t *testing.T) {
	m := filter.New(filter.DefaultVariants...)

	cases := []struct {
		name        string
		title       string
		description string
		want        bool
	}{
		{"exact title", "Инженер по охране труда", "", true},
		{"genitive form", "Специалист охраны труда", "", true},
		{"instrumental form", "Ведущий специалист по охраной труда", "", true},
		{"nominative in longer title", "Менеджер по охране труда и промышленной безопасности", "", true},
		{"match only in description", "Python разработчик", "работа связана с охраной труда", true},
		{"uppercase title", "ОХРАНА ТРУДА", "", true},
		{"mixed case", "Инженер по ОХРАНЕ ТРУДА", "", true},

		{"unrelated title", "Python разработчик", "", false},
		{"unrelated title and description", "Врач", "Работа с персоналом", false},
		{"sysadmin", "Системный администратор", "", false},
		{"empty input", "", "", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := m.Matches(c.title, c.description); got != c.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", c.title, c.description, got, c.want)
			}
		})
	}
}

// ── Custom variants ───────────────────────────────────────────────────────

func TestMatches_CustomVariants(t *testing.T) {
	m := filter.New("golang", "go developer")

	if !m.Matches("Senior Golang Engineer", "") {
		t.Error("expected case-folded match on custom variant")
	}
	if !m.Matches("Backend", "looking for a Go Developer") {
		t.Error("expected match in description on custom variant")
	}
	if m.Matches("Java Engineer", "Spring stack") {
		t.Error("unexpected match with custom variants")
	}
}

func TestNew_EmptyVariantsFallBackToDefault(t *testing.T) {
	m := filter.New("", "   ")

	if !m.Matches("Инженер по охране труда", "") {
		t.Error("matcher built from blank variants should fall back to defaults")
	}
}
