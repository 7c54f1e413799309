package service

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// noResultPhrases mark a portal page that carries no tracking data. The
// portal has no machine-readable signal, so these literals are matched
// against the lower-cased page. Keep them in sync with the portal wording.
var noResultPhrases = []string{
	"no se encontraron",
	"no se encontraron remesas",
	"no existe remesa",
	"la remesa consultada no existe",
	"remesa consultada no existe",
	"la remesa consultada",
	"no se encontro",
	"no hay registros",
	"sin resultados",
}

// hasNoResults reports whether html contains any no-result phrase,
// case-insensitively.
func hasNoResults(html string) bool {
	lower := cases.Lower(language.Und).String(html)
	for _, p := range noResultPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
