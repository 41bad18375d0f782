package sellermodel

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Product struct {
	ID              ID             `json:"id,omitempty"`
	MasterProductID ID             `json:"masterProductId,omitempty"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Brand           string         `json:"brand,omitempty"`
	Image           string         `json:"image,omitempty"`
	CategoryID      ID             `json:"categoryId,omitempty"`
	Price           Amount         `json:"price"`
	Stock           int            `json:"stock"`
	Unit            string         `json:"unit,omitempty"`
	ApprovalStatus  ApprovalStatus `json:"approvalStatus,omitempty"`
}

// UnmarshalJSON also accepts the lower-cased approvalstatus column name.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var aux struct {
		plain
		LowerApproval ApprovalStatus `json:"approvalstatus"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Product(aux.plain)
	if p.ApprovalStatus == "" {
		p.ApprovalStatus = aux.LowerApproval
	}
	return nil
}

func (p Product) Live() bool {
	return p.ApprovalStatus == ApprovalApproved
}

// LowStock matches the inventory badge: five units or fewer.
func (p Product) LowStock() bool {
	return p.Stock <= 5
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if p.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	return nil
}

type ProductEnvelope struct {
	Product Product `json:"product"`
}

type Category struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type CategoryList struct {
	Categories []Category `json:"categories"`
}

// CatalogItem is a master catalogue entry a seller can stock.
type CatalogItem struct {
	ID         ID     `json:"id"`
	Name       string `json:"name"`
	Brand      string `json:"brand,omitempty"`
	Image      string `json:"image,omitempty"`
	CategoryID ID     `json:"categoryId,omitempty"`
}

// Listing turns a catalogue entry into a product at the seller's price and
// stock.
func (c CatalogItem) Listing(price Amount, stock int) Product {
	return Product{
		MasterProductID: c.ID,
		Name:            c.Name,
		Image:           c.Image,
		CategoryID:      c.CategoryID,
		Price:           price,
		Stock:           stock,
	}
}

type BulkProducts struct {
	Products []Product `json:"products"`
}

func (b BulkProducts) Validate() error {
	if len(b.Products) == 0 {
		return ErrEmptyBulkProductList
	}
	for i, p := range b.Products {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("product %d: %w", i, err)
		}
	}
	return nil
}
