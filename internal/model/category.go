package model

import "fmt"

// Category is a label from the closed set the categorizer can emit.
type Category string

// Category labels.
const (
	CategoryFood           Category = "Food"
	CategoryTransportation Category = "Transportation"
	CategoryEntertainment  Category = "Entertainment"
	CategoryShopping       Category = "Shopping"
	CategoryBills          Category = "Bills"
	CategoryHealthcare     Category = "Healthcare"
	CategoryEducation      Category = "Education"
	CategoryOther          Category = "Other"
	CategoryIncome         Category = "Income"
)

// Categories lists every label in its canonical order.
var Categories = []Category{
	CategoryFood,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryBills,
	CategoryHealthcare,
	CategoryEducation,
	CategoryOther,
	CategoryIncome,
}

// ParseCategory validates a raw label against the category set.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// IsValid reports whether c belongs to the category set.
func (c Category) IsValid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// Code maps a category to the numeric code used by the anomaly features.
// Unknown or empty categories share the code of Other.
func (c Category) Code() int {
	for i, known := range Categories {
		if known == c {
			return i + 1
		}
	}
	return 8
}

// DefaultCategory is the conservative label used when categorization fails.
func DefaultCategory(t TransactionType) Category {
	if t == TypeIncome {
		return CategoryIncome
	}
	return CategoryOther
}
