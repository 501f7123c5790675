package categorizer

import (
	"github.com/Veraticus/spice-insight/internal/features"
	"github.com/Veraticus/spice-insight/internal/model"
)

// Example is one labelled training record.
type Example struct {
	Description string
	Type        model.TransactionType
	Category    model.Category
	Amount      float64
}

// Record returns the feature record of the example.
func (e Example) Record() features.Record {
	return features.Record{Description: e.Description, Amount: e.Amount, Type: e.Type}
}

// ExampleFromTransaction turns a categorized transaction into a training
// example. It reports false when the transaction carries no valid label.
func ExampleFromTransaction(t model.Transaction) (Example, bool) {
	if !t.Category.IsValid() {
		return Example{}, false
	}
	return Example{
		Description: t.Description,
		Amount:      t.AmountFloat(),
		Type:        t.Type,
		Category:    t.Category,
	}, true
}

func expense(desc string, amount float64, c model.Category) Example {
	return Example{Description: desc, Amount: amount, Type: model.TypeExpense, Category: c}
}

func income(desc string, amount float64) Example {
	return Example{Description: desc, Amount: amount, Type: model.TypeIncome, Category: model.CategoryIncome}
}

// BootstrapExamples returns the curated dataset used when no trained model
// exists. It covers every category except Other, plus income.
func BootstrapExamples() []Example {
	return []Example{
		expense("grocery store shopping", 85.50, model.CategoryFood),
		expense("restaurant dinner", 45.00, model.CategoryFood),
		expense("coffee shop", 5.75, model.CategoryFood),
		expense("pizza delivery", 25.99, model.CategoryFood),
		expense("supermarket", 120.00, model.CategoryFood),
		expense("bakery", 15.25, model.CategoryFood),

		expense("gas station", 40.00, model.CategoryTransportation),
		expense("uber ride", 15.50, model.CategoryTransportation),
		expense("bus ticket", 2.50, model.CategoryTransportation),
		expense("train fare", 8.75, model.CategoryTransportation),
		expense("car maintenance", 85.00, model.CategoryTransportation),

		expense("movie tickets", 30.00, model.CategoryEntertainment),
		expense("netflix subscription", 15.99, model.CategoryEntertainment),
		expense("concert tickets", 75.00, model.CategoryEntertainment),
		expense("bowling", 25.50, model.CategoryEntertainment),

		expense("clothing store", 75.00, model.CategoryShopping),
		expense("electronics purchase", 299.99, model.CategoryShopping),
		expense("amazon shopping", 45.80, model.CategoryShopping),
		expense("book store", 32.50, model.CategoryShopping),

		expense("electricity bill", 120.00, model.CategoryBills),
		expense("internet bill", 65.00, model.CategoryBills),
		expense("phone bill", 45.50, model.CategoryBills),
		expense("rent payment", 500.00, model.CategoryBills),

		expense("pharmacy", 35.50, model.CategoryHealthcare),
		expense("doctor visit", 100.00, model.CategoryHealthcare),
		expense("hospital", 250.00, model.CategoryHealthcare),
		expense("medicine", 28.75, model.CategoryHealthcare),

		expense("book store", 45.00, model.CategoryEducation),
		expense("online course", 89.99, model.CategoryEducation),
		expense("university fees", 1200.00, model.CategoryEducation),
		expense("stationery", 15.25, model.CategoryEducation),

		income("salary payment", 1500.00),
		income("freelance work", 300.00),
		income("bonus", 200.00),
	}
}
