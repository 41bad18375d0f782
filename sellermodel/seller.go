package sellermodel

import "time"

// ApplyRequest is the seller onboarding form (POST /api/sellers/apply).
type ApplyRequest struct {
	BusinessName      string   `json:"businessName"`
	Description       string   `json:"description"`
	BusinessAddress   string   `json:"businessAddress"`
	City              string   `json:"city"`
	Pincode           string   `json:"pincode"`
	BusinessPhone     string   `json:"businessPhone"`
	BankAccountNumber string   `json:"bankAccountNumber"`
	IFSCCode          string   `json:"ifscCode"`
	DeliveryRadius    float64  `json:"deliveryRadius"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
}

// BankDetails is sent to POST /api/seller/update-bank. ConfirmAccountNumber is
// checked locally and never leaves the client.
type BankDetails struct {
	AccountHolder        string `json:"accountHolder"`
	AccountNumber        string `json:"accountNumber"`
	ConfirmAccountNumber string `json:"-"`
	IFSC                 string `json:"ifsc"`
	BankName             string `json:"bankName,omitempty"`
}

type TaxInfo struct {
	PANNumber string `json:"panNumber"`
	GSTNumber string `json:"gstNumber,omitempty"`
}

type ShopProfile struct {
	BusinessName string `json:"businessName"`
	Category     string `json:"category,omitempty"`
	Description  string `json:"description,omitempty"`
	Address      string `json:"address,omitempty"`
	Pincode      string `json:"pincode,omitempty"`
	OpenTime     string `json:"openTime,omitempty"`
	CloseTime    string `json:"closeTime,omitempty"`
}

// ShopStatus is the body of PATCH /api/sellers/toggle-status.
type ShopStatus struct {
	IsOpen bool `json:"is_open"`
}

type WalletTransaction struct {
	ID          ID        `json:"id"`
	Amount      Amount    `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Credit reports whether the transaction adds to the balance.
func (t WalletTransaction) Credit() bool {
	return t.Amount > 0
}

type Wallet struct {
	Balance      Amount              `json:"balance"`
	Transactions []WalletTransaction `json:"transactions"`
}
