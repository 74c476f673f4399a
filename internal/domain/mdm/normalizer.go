package mdm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	rfcPattern        = regexp.MustCompile(`^[A-Z&Ñ]{3,4}\d{6}[A-Z\d]{3}$`)
	postalCodePattern = regexp.MustCompile(`^\d{5}$`)
	emailPattern      = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)
	threeDigitsRe     = regexp.MustCompile(`\d{3}`)
	cfdiCodePattern   = regexp.MustCompile(`^[A-Z]{1,2}_?\d{2}$`)
	nonDigitRe        = regexp.MustCompile(`[^0-9]`)
	nonPriceRe        = regexp.MustCompile(`[^0-9.,]`)
)

const prodServCodeLength = 8

// FieldWarning records a value that failed validation but was kept anyway
type FieldWarning struct {
	Field  string
	Value  string
	Reason string
}

func (w FieldWarning) String() string {
	return fmt.Sprintf("%s: %s (%q)", w.Field, w.Reason, w.Value)
}

// Normalizer cleans raw entity data into canonical records. It never rejects
// a field: malformed values are kept and reported as warnings.
type Normalizer struct{}

// NewNormalizer creates a normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Clean maps raw data onto the canonical fields of entityType
func (n *Normalizer) Clean(entityType EntityType, raw map[string]string) (CleanedRecord, []FieldWarning, error) {
	switch entityType {
	case EntityTypeIssuer:
		out, w := n.cleanIssuer(raw)
		return out, w, nil
	case EntityTypeReceiver:
		out, w := n.cleanReceiver(raw)
		return out, w, nil
	case EntityTypeProduct:
		out, w := n.cleanProduct(raw)
		return out, w, nil
	default:
		return nil, nil, fmt.Errorf("clean %q: %w", entityType, ErrUnknownEntityType)
	}
}

func (n *Normalizer) cleanIssuer(raw map[string]string) (CleanedRecord, []FieldWarning) {
	out := CleanedRecord{}
	var warnings []FieldWarning

	if v, ok := probe(raw, rfcAliases); ok {
		rfc := NormalizeRFC(v)
		if !ValidRFC(rfc) {
			warnings = append(warnings, FieldWarning{FieldRFC, rfc, "invalid RFC format"})
		}
		out[FieldRFC] = rfc
	}
	if v, ok := probe(raw, businessNameAliases); ok {
		out[FieldBusinessName] = NormalizeText(v)
	}
	if v, ok := probe(raw, taxRegimeAliases); ok {
		out[FieldTaxRegime] = NormalizeTaxRegime(v)
	}
	if v, ok := probe(raw, postalCodeAliases); ok {
		cp := strings.TrimSpace(v)
		if !postalCodePattern.MatchString(cp) {
			warnings = append(warnings, FieldWarning{FieldPostalCode, cp, "invalid postal code format"})
		}
		out[FieldPostalCode] = cp
	}
	return out, warnings
}

func (n *Normalizer) cleanReceiver(raw map[string]string) (CleanedRecord, []FieldWarning) {
	out := CleanedRecord{}
	var warnings []FieldWarning

	if v, ok := probe(raw, rfcAliases); ok {
		rfc := NormalizeRFC(v)
		if !ValidRFC(rfc) {
			warnings = append(warnings, FieldWarning{FieldRFC, rfc, "invalid RFC format"})
		}
		out[FieldRFC] = rfc
	}
	if v, ok := probe(raw, businessNameAliases); ok {
		out[FieldBusinessName] = NormalizeText(v)
	}
	if v, ok := probe(raw, cfdiUsageAliases); ok {
		out[FieldCfdiUsage] = NormalizeCfdiUsage(v)
	}
	if v, ok := probe(raw, postalCodeAliases); ok {
		cp := strings.TrimSpace(v)
		if !postalCodePattern.MatchString(cp) {
			warnings = append(warnings, FieldWarning{FieldPostalCode, cp, "invalid postal code format"})
		}
		out[FieldPostalCode] = cp
	}
	if v, ok := probe(raw, emailAliases); ok {
		email := strings.ToLower(strings.TrimSpace(v))
		if !emailPattern.MatchString(email) {
			warnings = append(warnings, FieldWarning{FieldEmail, email, "invalid email format"})
		}
		out[FieldEmail] = email
	}
	return out, warnings
}

func (n *Normalizer) cleanProduct(raw map[string]string) (CleanedRecord, []FieldWarning) {
	out := CleanedRecord{}
	var warnings []FieldWarning

	if v, ok := probe(raw, prodServCodeAliases); ok {
		if code, ok := NormalizeProdServCode(v); ok {
			out[FieldProdServCode] = code
		} else {
			warnings = append(warnings, FieldWarning{FieldProdServCode, v, "no digits in product code, field dropped"})
		}
	}
	if v, ok := probe(raw, internalCodeAliases); ok {
		out[FieldInternalCode] = strings.TrimSpace(v)
	}
	if v, ok := probe(raw, descriptionAliases); ok {
		out[FieldDescription] = NormalizeText(v)
	}
	if v, ok := probe(raw, unitAliases); ok {
		out[FieldUnit] = strings.TrimSpace(v)
	}
	if v, ok := probe(raw, unitPriceAliases); ok {
		price, valid := NormalizeUnitPrice(v)
		if !valid {
			warnings = append(warnings, FieldWarning{FieldUnitPrice, price, "invalid unit price format"})
		}
		out[FieldUnitPrice] = price
	}
	return out, warnings
}

// NormalizeRFC uppercases and trims a tax identifier
func NormalizeRFC(v string) string {
	return strings.TrimSpace(strings.ToUpper(v))
}

// ValidRFC reports whether an already-uppercased RFC has the expected shape
func ValidRFC(rfc string) bool {
	return rfcPattern.MatchString(rfc)
}

// NormalizeText collapses whitespace runs into single spaces and trims.
// Unicode spaces such as NBSP count as whitespace.
func NormalizeText(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// NormalizeTaxRegime extracts a 3-digit SAT regime code, falling back to a
// keyword lookup and finally to the uppercased input
func NormalizeTaxRegime(v string) string {
	regime := strings.ToUpper(strings.TrimSpace(v))
	if code := threeDigitsRe.FindString(regime); code != "" {
		return code
	}
	if code, ok := lookupCode(regime, taxRegimeMappings); ok {
		return code
	}
	return regime
}

// NormalizeCfdiUsage keeps coded values (G_03, CN_01), maps known keywords and
// defaults to G_03
func NormalizeCfdiUsage(v string) string {
	usage := strings.ToUpper(strings.TrimSpace(v))
	if cfdiCodePattern.MatchString(usage) {
		return usage
	}
	if code, ok := lookupCode(usage, cfdiUsageMappings); ok {
		return code
	}
	return DefaultCfdiUsage
}

// NormalizeProdServCode keeps the digits of v, left-pads to 8 and truncates longer codes.
// It reports false when v carries no digits at all.
func NormalizeProdServCode(v string) (string, bool) {
	digits := nonDigitRe.ReplaceAllString(v, "")
	if digits == "" {
		return "", false
	}
	if len(digits) > prodServCodeLength {
		return digits[:prodServCodeLength], true
	}
	return strings.Repeat("0", prodServCodeLength-len(digits)) + digits, true
}

// NormalizeUnitPrice strips currency noise and reformats the number. When the
// remainder does not parse, the partially cleaned text is returned with false.
func NormalizeUnitPrice(v string) (string, bool) {
	cleaned := strings.ReplaceAll(nonPriceRe.ReplaceAllString(v, ""), ",", ".")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return cleaned, false
	}
	return FormatPrice(d), true
}

// FormatPrice renders a price with at least one fractional digit ("5000.0", "12.5")
func FormatPrice(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(1)
	}
	return d.String()
}

// ParsePrice parses a value produced by NormalizeUnitPrice
func ParsePrice(v string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(v))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
