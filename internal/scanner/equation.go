package scanner

import (
	"regexp"
	"strings"

	"github.com/1rns/obsidian-math-booster/internal/model"
)

var (
	labelPattern = regexp.MustCompile(`\\label\{([^}]*)\}`)
	tagPattern   = regexp.MustCompile(`\\tag\{([^}]*)\}`)
)

// declarationFromEquation builds a Declaration from the body of one
// display-math block ($$ ... $$).
//
// \label{...} declares an explicit label, \tag{...} a manual number,
// \nonumber (or \notag) opts the equation out of numbering.
func declarationFromEquation(body string) model.Declaration {
	d := model.Declaration{Kind: model.KindEquation}

	if m := labelPattern.FindStringSubmatch(body); m != nil {
		d.Label = strings.TrimSpace(m[1])
	}
	if m := tagPattern.FindStringSubmatch(body); m != nil {
		d.ManualTag = strings.TrimSpace(m[1])
	}
	if strings.Contains(body, `\nonumber`) || strings.Contains(body, `\notag`) {
		d.NoNumber = true
	}

	return d
}
