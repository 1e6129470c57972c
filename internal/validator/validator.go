// Package validator registers the domain validation tags with Gin's binding
// engine. Currency codes use the engine's built-in iso4217 tag.
package validator

import (
	"reflect"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fintrack/internal/models"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// enumTags maps each tag to the model check behind it.
var enumTags = map[string]func(string) bool{
	"transaction_type":  func(s string) bool { return models.TransactionType(s).Valid() },
	"category_type":     func(s string) bool { return models.CategoryType(s).Valid() },
	"budget_period":     func(s string) bool { return models.BudgetPeriod(s).Valid() },
	"billing_frequency": func(s string) bool { return models.BillingFrequency(s).Valid() },
	"pattern_type":      func(s string) bool { return models.PatternType(s).Valid() },
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("money", validateMoney)
	for tag, valid := range enumTags {
		_ = v.RegisterValidation(tag, enumValidator(valid))
	}
}

func enumValidator(valid func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return valid(fl.Field().String())
	}
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

// validateMoney accepts amounts with at most two decimals.
func validateMoney(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32 {
		return false
	}
	return decimal.NewFromFloat(f.Float()).Exponent() >= -2
}
