package siteconfig

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid site config")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks field constraints and product ID uniqueness.
func (d *Document) Validate() error {
	if err := validatorInstance().Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	seen := make(map[ProductID]struct{}, len(d.Products))
	for _, p := range d.Products {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate product id %d", ErrInvalid, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// ValidateProduct checks a single product.
func ValidateProduct(p *Product) error {
	if err := validatorInstance().Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
