package model

// DescriptionMetadata holds user-supplied information about a canonical
// description. Description is the natural key.
type DescriptionMetadata struct {
	Description string
	Primary     *string
	Secondary   *string
	Tertiary    *string
	Additional  *string
}

// NewDescriptionMetadata returns metadata with all four fields set.
func NewDescriptionMetadata(description, primary, secondary, tertiary, additional string) DescriptionMetadata {
	return DescriptionMetadata{
		Description: description,
		Primary:     &primary,
		Secondary:   &secondary,
		Tertiary:    &tertiary,
		Additional:  &additional,
	}
}

// Value dereferences an optional field, returning "" for nil.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
