package tableapi

import (
	"fmt"
	"strings"

	"github.com/clientctl/clientctl/internal/clients"
	"golang.org/x/text/unicode/norm"
)

var searchFields = []string{clients.FieldName, clients.FieldEmail, clients.FieldPhone}

var formulaEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// SearchFormula builds a case-insensitive substring match over the name,
// email and phone fields. A blank search yields an empty formula.
func SearchFormula(search string) string {
	search = strings.TrimSpace(norm.NFC.String(search))
	if search == "" {
		return ""
	}
	literal := formulaEscaper.Replace(search)

	terms := make([]string, 0, len(searchFields))
	for _, field := range searchFields {
		terms = append(terms, fmt.Sprintf(`FIND(LOWER("%s"), LOWER({%s}))>0`, literal, field))
	}
	return "OR(" + strings.Join(terms, ", ") + ")"
}
