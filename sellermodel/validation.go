package sellermodel

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
	phonePattern   = regexp.MustCompile(`^\d{10}$`)
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// Validate applies the onboarding form rules before anything is sent.
func (r ApplyRequest) Validate() error {
	if len(strings.TrimSpace(r.BusinessName)) < 3 {
		return fmt.Errorf("%w: business name too short", ErrMissingField)
	}
	if len(strings.TrimSpace(r.Description)) < 10 {
		return fmt.Errorf("%w: describe your shop better", ErrMissingField)
	}
	if len(strings.TrimSpace(r.BusinessAddress)) < 10 {
		return fmt.Errorf("%w: full address required", ErrMissingField)
	}
	if len(strings.TrimSpace(r.City)) < 2 {
		return fmt.Errorf("%w: city", ErrMissingField)
	}
	if !pincodePattern.MatchString(r.Pincode) {
		return fmt.Errorf("%w: %q", ErrInvalidPincode, r.Pincode)
	}
	if !phonePattern.MatchString(r.BusinessPhone) {
		return fmt.Errorf("%w: 10 digits required", ErrInvalidPhone)
	}
	if len(r.BankAccountNumber) < 9 {
		return ErrInvalidAccount
	}
	if !ifscPattern.MatchString(r.IFSCCode) {
		return fmt.Errorf("%w: %q", ErrInvalidIFSC, r.IFSCCode)
	}
	if r.DeliveryRadius < 1 || r.DeliveryRadius > 100 {
		return ErrInvalidRadius
	}
	if r.Latitude == nil || r.Longitude == nil || *r.Latitude == 0 || *r.Longitude == 0 {
		return ErrLocationMissing
	}
	return nil
}

// Normalize upper-cases the IFSC code the way the form does while typing.
func (b *BankDetails) Normalize() {
	b.IFSC = strings.ToUpper(strings.TrimSpace(b.IFSC))
	b.AccountHolder = strings.TrimSpace(b.AccountHolder)
}

func (b BankDetails) Validate() error {
	if b.AccountHolder == "" || b.AccountNumber == "" || b.IFSC == "" {
		return fmt.Errorf("%w: account holder, account number and IFSC are required", ErrMissingField)
	}
	if b.AccountNumber != b.ConfirmAccountNumber {
		return ErrAccountMismatch
	}
	if !ifscPattern.MatchString(b.IFSC) {
		return fmt.Errorf("%w: %q", ErrInvalidIFSC, b.IFSC)
	}
	return nil
}

func (t *TaxInfo) Normalize() {
	t.PANNumber = strings.ToUpper(strings.TrimSpace(t.PANNumber))
	t.GSTNumber = strings.ToUpper(strings.TrimSpace(t.GSTNumber))
}

func (t TaxInfo) Validate() error {
	if !panPattern.MatchString(t.PANNumber) {
		return fmt.Errorf("%w: 10 characters required", ErrInvalidPAN)
	}
	return nil
}

func (s ShopProfile) Validate() error {
	if strings.TrimSpace(s.BusinessName) == "" {
		return fmt.Errorf("%w: business name", ErrMissingField)
	}
	if s.Pincode != "" && !pincodePattern.MatchString(s.Pincode) {
		return fmt.Errorf("%w: %q", ErrInvalidPincode, s.Pincode)
	}
	return nil
}
