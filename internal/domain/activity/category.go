package activity

import (
	"strings"

	"github.com/valoron/valoron/internal/domain/shared"
)

// Category classifies an activity. The set is closed.
type Category struct {
	code string
	name string
}

var (
	CategoryEnvironment    = Category{code: "ENV", name: "Environment"}
	CategoryBody           = Category{code: "BODY", name: "Body"}
	CategoryNutrition      = Category{code: "NUTR", name: "Nutrition"}
	CategoryHygiene        = Category{code: "HYG", name: "Hygiene"}
	CategorySocial         = Category{code: "SOC", name: "Social"}
	CategoryAdministrative = Category{code: "ADM", name: "Administrative"}
	CategoryLearning       = Category{code: "LRN", name: "Learning"}
	CategoryProject        = Category{code: "PROJ", name: "Project"}
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryEnvironment,
		CategoryBody,
		CategoryNutrition,
		CategoryHygiene,
		CategorySocial,
		CategoryAdministrative,
		CategoryLearning,
		CategoryProject,
	}
}

// CategoryFromCode resolves a short code such as "LRN". Matching ignores case.
func CategoryFromCode(code string) (Category, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	for _, cat := range Categories() {
		if cat.code == c {
			return cat, nil
		}
	}
	return Category{}, shared.InvalidArgument("activity", "CategoryFromCode", "unknown category code %q", code)
}

// Code returns the stable short code.
func (c Category) Code() string { return c.code }

// Name returns the display name.
func (c Category) Name() string { return c.name }

// IsZero reports whether the category is unset.
func (c Category) IsZero() bool { return c.code == "" }

func (c Category) String() string { return c.name }
