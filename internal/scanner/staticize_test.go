package scanner

import (
	"strings"
	"testing"

	"github.com/1rns/obsidian-math-booster/internal/model"
)

func TestStaticizeEquation(t *testing.T) {
	t.Run("single line", func(t *testing.T) {
		raw := "$$ a + b = c $$"
		got, err := Staticize(raw, model.Declaration{Kind: model.KindEquation}, "2.3")
		if err != nil {
			t.Fatalf("Staticize: %v", err)
		}
		want := `$$ a + b = c \tag{2.3} $$`
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("multi line", func(t *testing.T) {
		raw := "$$\na + b = c\n$$"
		got, err := Staticize(raw, model.Declaration{Kind: model.KindEquation}, "4")
		if err != nil {
			t.Fatalf("Staticize: %v", err)
		}
		want := "$$\na + b = c\n\\tag{4}\n$$"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("rescans to the same declaration", func(t *testing.T) {
		raw := "$$\nE = mc^2 \\label{eq:energy}\n$$"
		got, err := Staticize(raw, model.Declaration{Kind: model.KindEquation}, "1.2")
		if err != nil {
			t.Fatalf("Staticize: %v", err)
		}

		res := Scan(got)
		if len(res.Declarations) != 1 {
			t.Fatalf("rescan found %d declarations", len(res.Declarations))
		}
		d := res.Declarations[0]
		if d.ManualTag != "1.2" {
			t.Errorf("rescan manual tag = %q, want 1.2", d.ManualTag)
		}
		if d.Label != "eq:energy" {
			t.Errorf("rescan label = %q, want eq:energy", d.Label)
		}
	})
}

func TestStaticizeCallout(t *testing.T) {
	raw := `> [!math|{"type":"theorem","label":"thm:main","title":"Main"}]
> Body of the theorem.`

	got, err := Staticize(raw, model.Declaration{Kind: model.KindTheorem}, "3.1")
	if err != nil {
		t.Fatalf("Staticize: %v", err)
	}

	if !strings.HasSuffix(got, "> Body of the theorem.") {
		t.Errorf("block body was not preserved: %q", got)
	}

	res := Scan(got)
	if len(res.Declarations) != 1 {
		t.Fatalf("rescan found %d declarations", len(res.Declarations))
	}
	d := res.Declarations[0]
	if d.ManualTag != "3.1" {
		t.Errorf("rescan manual tag = %q, want 3.1", d.ManualTag)
	}
	if d.Label != "thm:main" || d.Title != "Main" || d.SubKind != "theorem" {
		t.Errorf("metadata not preserved: %+v", d)
	}
}

func TestStaticizeRejects(t *testing.T) {
	tests := []struct {
		name string
		d    model.Declaration
		num  string
	}{
		{name: "unnumbered", d: model.Declaration{Kind: model.KindEquation, NoNumber: true}, num: "1"},
		{name: "already tagged", d: model.Declaration{Kind: model.KindEquation, ManualTag: "A"}, num: "1"},
		{name: "empty number", d: model.Declaration{Kind: model.KindEquation}, num: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Staticize("$$ x $$", tt.d, tt.num); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}
