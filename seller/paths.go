package seller

import (
	"net/url"

	"github.com/jrsteele09/go-seller-client/query"
	"github.com/jrsteele09/go-seller-client/sellermodel"
)

const (
	PathDashboard     = "/api/sellers/dashboard-stats"
	PathOrders        = "/api/sellers/orders"
	PathToggleStatus  = "/api/sellers/toggle-status"
	PathUpdateProfile = "/api/sellers/update-profile"
	PathUpdateTax     = "/api/sellers/update-tax"
	PathApply         = "/api/sellers/apply"
	PathUpdateBank    = "/api/seller/update-bank"
	PathProducts      = "/api/products"
	PathSellerProduct = "/api/products/seller"
	PathBulkProducts  = "/api/products/bulk"
	PathMasterSearch  = "/api/products/master-search"
	PathCategories    = "/api/categories/all"
	PathWallet        = "/api/wallet/my-wallet"
)

func subOrderDetailsPath(id sellermodel.ID) string {
	return "/api/suborders/" + url.PathEscape(id.String()) + "/details"
}

func subOrderStatusPath(id sellermodel.ID) string {
	return "/api/suborders/" + url.PathEscape(id.String()) + "/status"
}

func productPath(id sellermodel.ID) string {
	return PathProducts + "/" + url.PathEscape(id.String())
}

var (
	dashboardKey      = query.NewKey(PathDashboard, nil)
	ordersKey         = query.NewKey(PathOrders, nil)
	sellerProductsKey = query.NewKey(PathSellerProduct, nil)
	categoriesKey     = query.NewKey(PathCategories, nil)
	walletKey         = query.NewKey(PathWallet, nil)
)
