package manifest

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	nameOnce      sync.Once
	namePattern   = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	validatorOnce sync.Once
)

// registerCustomTags wires the identifier rule shared by pipe and context
// store names into the validator instance.
func registerCustomTags(v *validator.Validate) {
	nameOnce.Do(func() {
		_ = v.RegisterValidation("pipebase_name", func(fl validator.FieldLevel) bool {
			return namePattern.MatchString(fl.Field().String())
		})
	})
}

func init() {
	validatorOnce.Do(func() {
		registerCustomTags(structTagValidator)
	})
}
