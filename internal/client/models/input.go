package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/subguard/internal/common"
)

// CreateInput is the raw user intent to create a subscription. Amount is a
// string because it comes straight from a form or prompt.
type CreateInput struct {
	Name      string    `validate:"required,max=64"`
	Amount    string    `validate:"required,numeric"`
	Frequency Frequency `validate:"required,oneof=weekly monthly yearly"`
}

var validate = validator.New()

// Validate checks the input and returns the parsed amount. Every failure
// wraps common.ErrValidation.
func (in *CreateInput) Validate() (uint64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Amount = strings.TrimSpace(in.Amount)
	if in.Frequency == "" {
		in.Frequency = FrequencyMonthly
	}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return 0, fmt.Errorf("%w: %s failed on %q", common.ErrValidation, verrs[0].Field(), verrs[0].Tag())
		}
		return 0, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	// encrypted amounts are 32-bit on-chain
	amount, err := strconv.ParseUint(in.Amount, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: amount must be a non-negative integer", common.ErrValidation)
	}
	return amount, nil
}
