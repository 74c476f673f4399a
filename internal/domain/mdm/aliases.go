package mdm

// fieldAliases lists, per canonical field, the source keys probed in priority order.
type fieldAliases struct {
	Field   string
	Aliases []string
}

var (
	rfcAliases          = []string{"rfc", "RFC", "tax_id"}
	businessNameAliases = []string{"businessName", "business_name", "razon_social", "name", "nombre"}
	taxRegimeAliases    = []string{"taxRegime", "tax_regime", "regimen_fiscal", "regimen"}
	postalCodeAliases   = []string{"postalCode", "postal_code", "codigo_postal", "cp"}
	cfdiUsageAliases    = []string{"cfdiUsage", "cfdi_usage", "uso_cfdi", "uso"}
	emailAliases        = []string{"email", "correo", "mail"}
	prodServCodeAliases = []string{"prodServCode", "prod_serv_code", "clave_prod_serv", "code"}
	internalCodeAliases = []string{"internalCode", "internal_code", "codigo_interno"}
	descriptionAliases  = []string{"description", "descripcion"}
	unitAliases         = []string{"unit", "unidad"}
	unitPriceAliases    = []string{"unitPrice", "unit_price", "precio_unitario", "precio"}
)

// Aliases returns the probe order for every canonical field of an entity type
func Aliases(t EntityType) []fieldAliases {
	switch t {
	case EntityTypeIssuer:
		return []fieldAliases{
			{FieldRFC, rfcAliases},
			{FieldBusinessName, businessNameAliases},
			{FieldTaxRegime, taxRegimeAliases},
			{FieldPostalCode, postalCodeAliases},
		}
	case EntityTypeReceiver:
		return []fieldAliases{
			{FieldRFC, rfcAliases},
			{FieldBusinessName, businessNameAliases},
			{FieldCfdiUsage, cfdiUsageAliases},
			{FieldPostalCode, postalCodeAliases},
			{FieldEmail, emailAliases},
		}
	case EntityTypeProduct:
		return []fieldAliases{
			{FieldProdServCode, prodServCodeAliases},
			{FieldInternalCode, internalCodeAliases},
			{FieldDescription, descriptionAliases},
			{FieldUnit, unitAliases},
			{FieldUnitPrice, unitPriceAliases},
		}
	}
	return nil
}

// probe returns the raw value of the first alias present with a non-blank value
func probe(data map[string]string, aliases []string) (string, bool) {
	for _, key := range aliases {
		if v, ok := data[key]; ok && !isBlank(v) {
			return v, true
		}
	}
	return "", false
}
