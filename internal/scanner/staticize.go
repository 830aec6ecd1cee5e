package scanner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/1rns/obsidian-math-booster/internal/model"
)

// Staticize rewrites a declaration's source text so that its current
// automatic number becomes a literal manual tag. For equations the tag
// is inserted as \tag{...} before the closing delimiter; for theorem
// callouts the opener's number field is set to the literal.
//
// raw is the document slice [StartOffset, EndOffset) of the declaration.
// The returned fragment replaces that slice byte for byte.
func Staticize(raw string, d model.Declaration, number string) (string, error) {
	if d.NoNumber {
		return "", fmt.Errorf("declaration is unnumbered")
	}
	if d.ManualTag != "" {
		return "", fmt.Errorf("declaration already carries a manual tag")
	}
	if number == "" {
		return "", fmt.Errorf("declaration has no computed number")
	}

	switch d.Kind {
	case model.KindEquation:
		return staticizeEquation(raw, number)
	case model.KindTheorem:
		return staticizeCallout(raw, number)
	}
	return "", fmt.Errorf("unknown declaration kind %q", d.Kind)
}

func staticizeEquation(raw, number string) (string, error) {
	close := strings.LastIndex(raw, "$$")
	if close <= 0 {
		return "", fmt.Errorf("equation has no closing delimiter")
	}
	tag := `\tag{` + number + `}`
	body := strings.TrimRight(raw[:close], " \t")
	if strings.HasSuffix(body, "\n") {
		// Multi-line block: the tag gets its own line before the closer.
		return body + tag + "\n" + raw[close:], nil
	}
	return body + " " + tag + " " + raw[close:], nil
}

func staticizeCallout(raw, number string) (string, error) {
	nl := strings.Index(raw, "\n")
	opener := raw
	rest := ""
	if nl >= 0 {
		opener = raw[:nl]
		rest = raw[nl:]
	}

	payload, ok := strippedCalloutPayload(opener)
	if !ok {
		return "", fmt.Errorf("not a math callout opener")
	}
	var meta blockMeta
	if err := json.Unmarshal([]byte(payload), &meta); err != nil {
		return "", fmt.Errorf("callout payload is malformed")
	}
	meta.Number = number

	encoded, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	idx := strings.Index(opener, calloutPrefix)
	prefix := opener[:idx+len(calloutPrefix)]
	return prefix + string(encoded) + "]" + rest, nil
}
