// Package seller is the typed client for the seller endpoints of the backend.
// Reads are served through the query cache; writes invalidate the reads they
// affect.
package seller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-seller-client/gateway"
	"github.com/jrsteele09/go-seller-client/query"
	"github.com/jrsteele09/go-seller-client/sellermodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Service struct {
	client *query.Client
	log    zerolog.Logger
}

type Option func(*Service)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.log = logger }
}

func NewService(client *query.Client, opts ...Option) *Service {
	s := &Service{client: client, log: log.Logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) DashboardStats(ctx context.Context) (*sellermodel.DashboardStats, error) {
	stats, err := query.Get[sellermodel.DashboardStats](ctx, s.client, dashboardKey)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Orders lists the seller's sub-orders, newest first. An empty status returns
// all of them.
func (s *Service) Orders(ctx context.Context, status sellermodel.OrderStatus) ([]sellermodel.SubOrder, error) {
	raw, err := s.client.Fetch(ctx, ordersKey)
	if err != nil {
		return nil, err
	}
	orders, err := decodeList[sellermodel.SubOrder](raw, "orders")
	if err != nil {
		return nil, err
	}

	filtered := orders[:0]
	for _, o := range orders {
		if status == "" || o.Status == status {
			filtered = append(filtered, o)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return filtered, nil
}

func (s *Service) OrderDetails(ctx context.Context, id sellermodel.ID) (*sellermodel.SubOrder, error) {
	details, err := query.Get[sellermodel.OrderDetails](ctx, s.client, query.NewKey(subOrderDetailsPath(id), nil))
	if err != nil {
		return nil, err
	}
	return &details.SubOrder, nil
}

// UpdateOrderStatus moves a sub-order to status. The order list, the order's
// details and the dashboard are refetched on next read.
func (s *Service) UpdateOrderStatus(ctx context.Context, id sellermodel.ID, status sellermodel.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", sellermodel.ErrInvalidOrderStatus, status)
	}
	_, err := s.client.Mutate(ctx, http.MethodPatch, subOrderStatusPath(id),
		sellermodel.StatusUpdate{Status: status},
		ordersKey, query.NewKey(subOrderDetailsPath(id), nil), dashboardKey,
	)
	if err != nil {
		return err
	}
	s.log.Info().Str("suborder", id.String()).Str("status", string(status)).Msg("Order status updated")
	return nil
}

func (s *Service) SellerProducts(ctx context.Context) ([]sellermodel.Product, error) {
	raw, err := s.client.Fetch(ctx, sellerProductsKey)
	if err != nil {
		return nil, err
	}
	return decodeList[sellermodel.Product](raw, "products")
}

// SearchInventory filters the seller's products by name, case-insensitively.
func (s *Service) SearchInventory(ctx context.Context, term string) ([]sellermodel.Product, error) {
	products, err := s.SellerProducts(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products, nil
	}
	var matched []sellermodel.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (s *Service) Product(ctx context.Context, id sellermodel.ID) (*sellermodel.Product, error) {
	env, err := query.Get[sellermodel.ProductEnvelope](ctx, s.client, query.NewKey(productPath(id), nil))
	if err != nil {
		return nil, err
	}
	return &env.Product, nil
}

// SearchCatalog searches the master catalogue. A blank term returns nothing
// without asking the backend.
func (s *Service) SearchCatalog(ctx context.Context, term string) ([]sellermodel.CatalogItem, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	raw, err := s.client.Fetch(ctx, query.NewKey(PathMasterSearch, map[string]string{"q": term}))
	if err != nil {
		return nil, err
	}
	return decodeList[sellermodel.CatalogItem](raw, "products")
}

func (s *Service) Categories(ctx context.Context) ([]sellermodel.Category, error) {
	list, err := query.Get[sellermodel.CategoryList](ctx, s.client, categoriesKey)
	if err != nil {
		return nil, err
	}
	return list.Categories, nil
}

// CreateProduct adds a manually entered product. With images the product is
// sent as multipart/form-data with one "images" part per file.
func (s *Service) CreateProduct(ctx context.Context, p sellermodel.Product, images ...gateway.File) (json.RawMessage, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var payload any = p
	if len(images) > 0 {
		form := &gateway.Multipart{Fields: productFields(p)}
		for _, img := range images {
			if img.FieldName == "" {
				img.FieldName = "images"
			}
			form.Files = append(form.Files, img)
		}
		payload = form
	}
	return s.client.Mutate(ctx, http.MethodPost, PathProducts, payload, sellerProductsKey, dashboardKey)
}

func productFields(p sellermodel.Product) map[string]string {
	fields := map[string]string{
		"name":  p.Name,
		"price": strconv.FormatFloat(float64(p.Price), 'f', -1, 64),
		"stock": strconv.Itoa(p.Stock),
	}
	optional := map[string]string{
		"description":     p.Description,
		"brand":           p.Brand,
		"image":           p.Image,
		"unit":            p.Unit,
		"categoryId":      p.CategoryID.String(),
		"masterProductId": p.MasterProductID.String(),
	}
	for k, v := range optional {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}

// BulkAddProducts stocks several catalogue items at once.
func (s *Service) BulkAddProducts(ctx context.Context, products []sellermodel.Product) error {
	bulk := sellermodel.BulkProducts{Products: products}
	if err := bulk.Validate(); err != nil {
		return err
	}
	_, err := s.client.Mutate(ctx, http.MethodPost, PathBulkProducts, bulk, sellerProductsKey, dashboardKey)
	return err
}

func (s *Service) UpdateProduct(ctx context.Context, id sellermodel.ID, p sellermodel.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.client.Mutate(ctx, http.MethodPut, productPath(id), p,
		sellerProductsKey, query.NewKey(productPath(id), nil))
	return err
}

func (s *Service) DeleteProduct(ctx context.Context, id sellermodel.ID) error {
	_, err := s.client.Mutate(ctx, http.MethodDelete, productPath(id), nil,
		sellerProductsKey, query.NewKey(productPath(id), nil), dashboardKey)
	return err
}

// SetShopOpen opens or closes the shop for new orders.
func (s *Service) SetShopOpen(ctx context.Context, open bool) error {
	_, err := s.client.Mutate(ctx, http.MethodPatch, PathToggleStatus, sellermodel.ShopStatus{IsOpen: open}, dashboardKey)
	if err != nil {
		return err
	}
	s.log.Info().Bool("open", open).Msg("Shop status changed")
	return nil
}

func (s *Service) UpdateShopProfile(ctx context.Context, profile sellermodel.ShopProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	_, err := s.client.Mutate(ctx, http.MethodPut, PathUpdateProfile, profile, dashboardKey)
	return err
}

func (s *Service) UpdateTaxInfo(ctx context.Context, tax sellermodel.TaxInfo) error {
	tax.Normalize()
	if err := tax.Validate(); err != nil {
		return err
	}
	_, err := s.client.Mutate(ctx, http.MethodPut, PathUpdateTax, tax)
	return err
}

func (s *Service) UpdateBankDetails(ctx context.Context, bank sellermodel.BankDetails) error {
	bank.Normalize()
	if err := bank.Validate(); err != nil {
		return err
	}
	_, err := s.client.Mutate(ctx, http.MethodPost, PathUpdateBank, bank, walletKey)
	return err
}

// Apply submits the seller application. Callers refresh the session user
// afterwards to pick up the pending status.
func (s *Service) Apply(ctx context.Context, req sellermodel.ApplyRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	_, err := s.client.Mutate(ctx, http.MethodPost, PathApply, req)
	return err
}

func (s *Service) Wallet(ctx context.Context) (*sellermodel.Wallet, error) {
	w, err := query.Get[sellermodel.Wallet](ctx, s.client, walletKey)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// decodeList reads either a bare JSON array or an object holding the array
// under field. Anything else is an empty list.
func decodeList[T any](raw json.RawMessage, field string) ([]T, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("failed to decode list: %w", err)
		}
		return items, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	inner, ok := wrapped[field]
	if !ok || !strings.HasPrefix(strings.TrimSpace(string(inner)), "[") {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", field, err)
	}
	return items, nil
}
