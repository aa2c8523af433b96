package checkout

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ikkim/storefront-backend/internal/app/model"
)

const (
	FieldPayment           = "payment_method"
	FieldBuyerHandle       = "buyer_handle"
	FieldShippingAddress   = "shipping_address"
	FieldTransactionNumber = "transaction_number"
	FieldWindow            = "payment_window"
	FieldOrder             = "order"
)

var transactionRefPattern = regexp.MustCompile(`^[0-9]{6}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("txref", func(fl validator.FieldLevel) bool {
		return transactionRefPattern.MatchString(fl.Field().String())
	})
	return v
}

// Normalize trims every field. Cash orders carry no transaction reference.
func Normalize(method model.PaymentMethod, d Details) Details {
	d.BuyerHandle = strings.TrimSpace(d.BuyerHandle)
	d.ShippingAddress = strings.TrimSpace(d.ShippingAddress)
	d.PhoneNumber = strings.TrimSpace(d.PhoneNumber)
	d.Remark = strings.TrimSpace(d.Remark)
	d.TransactionNumber = strings.TrimSpace(d.TransactionNumber)
	if !method.RequiresTransactionRef() {
		d.TransactionNumber = ""
	}
	return d
}

// ValidateDetails returns field errors keyed by JSON field name; an empty
// map means the form may be submitted.
func ValidateDetails(method model.PaymentMethod, d Details) map[string]string {
	errs := map[string]string{}
	if !method.Valid() {
		errs[FieldPayment] = "select a payment method"
	}

	d = Normalize(method, d)
	if err := validate.Struct(d); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				errs[fe.Field()] = validationMessage(fe)
			}
		}
	}

	if method.RequiresTransactionRef() {
		switch {
		case d.TransactionNumber == "":
			errs[FieldTransactionNumber] = "is required"
		case !transactionRefPattern.MatchString(d.TransactionNumber):
			errs[FieldTransactionNumber] = "must be exactly 6 digits"
		}
	}
	return errs
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "is too long"
	case "len", "numeric", "txref":
		return "must be exactly 6 digits"
	}
	return "is invalid"
}
