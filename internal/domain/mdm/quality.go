package mdm

// RequiredFields lists the fields that count towards the quality score of an entity type
func RequiredFields(t EntityType) []string {
	switch t {
	case EntityTypeIssuer:
		return []string{FieldRFC, FieldBusinessName, FieldTaxRegime}
	case EntityTypeReceiver:
		return []string{FieldRFC, FieldBusinessName}
	case EntityTypeProduct:
		return []string{FieldDescription}
	}
	return nil
}

// QualityScore is the share of required fields present and non-empty, in [0,1].
// Format validity is not considered.
func QualityScore(cleaned CleanedRecord, t EntityType) float64 {
	required := RequiredFields(t)
	if len(required) == 0 {
		return 1.0
	}
	present := 0
	for _, f := range required {
		if cleaned.Has(f) {
			present++
		}
	}
	score := float64(present) / float64(len(required))
	if score > 1.0 {
		return 1.0
	}
	return score
}
