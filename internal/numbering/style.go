package numbering

import (
	"strconv"
	"strings"

	"github.com/1rns/obsidian-math-booster/internal/settings"
)

// applyStyle renders an automatic counter value in the configured style.
// Values below 1 fall back to arabic, which keeps degenerate start
// values displayable.
func applyStyle(value int, style settings.Style) string {
	if value < 1 {
		return strconv.Itoa(value)
	}
	switch style {
	case settings.StyleRoman:
		return toRoman(value)
	case settings.StyleAlpha:
		return toAlpha(value)
	default:
		return strconv.Itoa(value)
	}
}

var romanValues = []struct {
	value  int
	symbol string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

func toRoman(n int) string {
	var b strings.Builder
	for _, rv := range romanValues {
		for n >= rv.value {
			b.WriteString(rv.symbol)
			n -= rv.value
		}
	}
	return b.String()
}

// toAlpha converts 1 -> "a", 26 -> "z", 27 -> "aa" (bijective base 26).
func toAlpha(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
