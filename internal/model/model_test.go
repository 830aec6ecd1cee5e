package model

import "testing"

func TestDocumentID(t *testing.T) {
	if got := DocumentID("notes/analysis.md"); got != "notes/analysis" {
		t.Errorf("got %q", got)
	}
	if got := DocumentID(`notes\win.md`); got != "notes/win" {
		t.Errorf("backslash separators should normalize, got %q", got)
	}
}

func TestQualifiedLabelRoundtrip(t *testing.T) {
	fq := QualifiedLabel("notes/analysis", "thm:main")
	if fq != "notes/analysis#thm:main" {
		t.Fatalf("got %q", fq)
	}

	doc, local := SplitQualifiedLabel(fq)
	if doc != "notes/analysis" || local != "thm:main" {
		t.Errorf("split = %q, %q", doc, local)
	}

	t.Run("no separator", func(t *testing.T) {
		doc, local := SplitQualifiedLabel("thm:main")
		if doc != "thm:main" || local != "" {
			t.Errorf("split = %q, %q", doc, local)
		}
	})
}

func TestEntryKindName(t *testing.T) {
	e := Entry{Kind: KindTheorem, SubKind: "lemma"}
	if got := e.KindName(); got != "lemma" {
		t.Errorf("got %q", got)
	}

	e = Entry{Kind: KindTheorem}
	if got := e.KindName(); got != "theorem" {
		t.Errorf("got %q", got)
	}

	e = Entry{Kind: KindEquation}
	if got := e.KindName(); got != "equation" {
		t.Errorf("got %q", got)
	}
}

func TestDeclarationAutomatic(t *testing.T) {
	tests := []struct {
		name string
		d    Declaration
		want bool
	}{
		{"plain", Declaration{}, true},
		{"manual tag", Declaration{ManualTag: "A"}, false},
		{"opted out", Declaration{NoNumber: true}, false},
	}
	for _, tt := range tests {
		if got := tt.d.Automatic(); got != tt.want {
			t.Errorf("%s: Automatic() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
