package sanitizer

func SanitizeCategories(categories []string) []string {
	return SanitizeSlice(categories, SanitizeCategory)
}
