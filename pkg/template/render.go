package template

import (
	"fmt"
	"strings"
)

// Params maps placeholder names to display values. Values are formatted with
// fmt.Sprint, so callers pre-format dates and amounts the way they should
// appear to the recipient.
type Params map[string]any

// Render substitutes every "{Name}" occurrence in text with the string form of
// params["Name"]. Unmatched placeholders are left verbatim and missing
// parameters never raise an error: different templates share call sites with
// partial parameter sets, and a visible "{Foo}" in a rendered message is
// preferable to a dropped notification.
func Render(text string, params Params) string {
	if text == "" || len(params) == 0 {
		return text
	}

	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}

	return strings.NewReplacer(pairs...).Replace(text)
}
