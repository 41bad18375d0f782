package sellermodel

import "errors"

var (
	ErrInvalidOrderStatus   = errors.New("invalid order status")
	ErrMissingField         = errors.New("required field missing")
	ErrInvalidPincode       = errors.New("invalid pincode")
	ErrInvalidPhone         = errors.New("invalid phone number")
	ErrInvalidIFSC          = errors.New("invalid IFSC code")
	ErrInvalidPAN           = errors.New("invalid PAN number")
	ErrAccountMismatch      = errors.New("account numbers do not match")
	ErrInvalidAccount       = errors.New("invalid account number")
	ErrInvalidRadius        = errors.New("delivery radius must be between 1 and 100 km")
	ErrLocationMissing      = errors.New("shop location missing")
	ErrInvalidProduct       = errors.New("invalid product")
	ErrEmptyBulkProductList = errors.New("no products to add")
)
