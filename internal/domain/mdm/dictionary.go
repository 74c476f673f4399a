package mdm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type codeMapping struct {
	Substring string
	Code      string
}

// Order matters: the first substring contained in the value wins.
var taxRegimeMappings = []codeMapping{
	{"GENERAL", "601"},
	{"PERSONAS MORALES", "601"},
	{"PERSONAS FISICAS", "612"},
	{"SIMPLIFICADO", "621"},
	{"RIF", "626"},
}

var cfdiUsageMappings = []codeMapping{
	{"GASTOS GENERAL", "G_03"},
	{"GENERAL", "G_03"},
	{"ADQUISICION", "G_01"},
	{"COMPRA", "G_01"},
	{"HONORARIOS", "G_03"},
	{"NOMINA", "CN_01"},
	{"EDUCACION", "G_03"},
}

// DefaultCfdiUsage is used when a usage value matches nothing known
const DefaultCfdiUsage = "G_03"

// lookupCode matches against the accent-folded value so "FÍSICAS" finds "FISICAS"
func lookupCode(value string, mappings []codeMapping) (string, bool) {
	folded := foldAccents(value)
	for _, m := range mappings {
		if strings.Contains(folded, m.Substring) {
			return m.Code, true
		}
	}
	return "", false
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
