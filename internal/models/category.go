package models

// Category is the closed set of life-moment classifications.
type Category string

const (
	CategoryFamily      Category = "family"
	CategoryTravel      Category = "travel"
	CategoryFood        Category = "food"
	CategoryWork        Category = "work"
	CategoryCelebration Category = "celebration"
	CategoryNature      Category = "nature"
	CategorySports      Category = "sports"
	CategoryEducation   Category = "education"
	CategorySocial      Category = "social"
	CategoryHobby       Category = "hobby"
	CategoryPersonal    Category = "personal"
)

// Categories lists every valid category in prompt order.
var Categories = []Category{
	CategoryFamily, CategoryTravel, CategoryFood, CategoryWork, CategoryCelebration,
	CategoryNature, CategorySports, CategoryEducation, CategorySocial, CategoryHobby,
	CategoryPersonal,
}

// ParseCategory returns the category for s, or false when s is not a member
// of the closed set. s must already be normalized.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}
