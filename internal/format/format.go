// Package format renders the human-readable rollup text published next to
// the JSON blobs.
package format

import (
	"strconv"
	"strings"

	"github.com/tartampluch/go-birthday-sync/internal/config"
	"github.com/tartampluch/go-birthday-sync/internal/engine"
)

// Text renders one line of rollup text from a set of records sharing the
// same occurrence. Template supports %n (name) and %a (age); rendered
// entries are joined by Separator.
type Text struct {
	Template  string
	Separator string
}

// Render substitutes the placeholders per record and joins the results in
// record order.
func (t Text) Render(records []engine.Record) string {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		s := strings.ReplaceAll(t.Template, config.PlaceholderName, r.Name)
		s = strings.ReplaceAll(s, config.PlaceholderAge, strconv.Itoa(r.Age))
		parts = append(parts, s)
	}
	return strings.Join(parts, t.Separator)
}
