// Package intent turns a chat message into a role-scoped Detection: a regex
// fast path for courtesies, a language-model classifier for everything else.
package intent

// ID names one intent of the closed catalog.
type ID string

const (
	Greeting ID = "greeting"
	Help     ID = "help"
	Thanks   ID = "thanks"
	Confirm  ID = "confirm"
	Reject   ID = "reject"
	General  ID = "general"

	ProductSearch         ID = "product_search"
	ProductDetails        ID = "product_details"
	ProductRecommendation ID = "product_recommendation"
	CategoryBrowse        ID = "category_browse"
	ViewCart              ID = "view_cart"
	AddToCart             ID = "add_to_cart"
	RemoveFromCart        ID = "remove_from_cart"
	ViewWishlist          ID = "view_wishlist"
	AddToWishlist         ID = "add_to_wishlist"
	RemoveFromWishlist    ID = "remove_from_wishlist"
	OrderStatus           ID = "order_status"
	OrderHistory          ID = "order_history"
	VoucherInfo           ID = "voucher_info"

	StoreProducts ID = "store_products"
	StoreOrders   ID = "store_orders"
	StoreSales    ID = "store_sales"
	LowStock      ID = "low_stock"

	PlatformStats     ID = "platform_stats"
	UserManagement    ID = "user_management"
	VendorManagement  ID = "vendor_management"
	VoucherManagement ID = "voucher_management"
)

// IsMutation reports whether the intent changes cart or wishlist contents and
// therefore needs the user's consent.
func IsMutation(id ID) bool {
	switch id {
	case AddToCart, RemoveFromCart, AddToWishlist, RemoveFromWishlist:
		return true
	}
	return false
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Entities holds what the classifier extracted. Absent values stay zero and
// are omitted when serialized.
type Entities struct {
	Products    []string    `json:"products,omitempty"`
	Category    string      `json:"category,omitempty"`
	OrderNumber string      `json:"orderNumber,omitempty"`
	Quantity    int         `json:"quantity,omitempty"`
	PriceRange  *PriceRange `json:"priceRange,omitempty"`
}

// Detection is the typed result of classifying one message. Intents is never
// empty and Intents[0] drives routing.
type Detection struct {
	Intents    []ID       `json:"intents"`
	Entities   Entities   `json:"entities"`
	Confidence Confidence `json:"confidence"`
}

// Primary returns the routing intent, General when nothing was detected.
func (d Detection) Primary() ID {
	if len(d.Intents) == 0 {
		return General
	}
	return d.Intents[0]
}

func fallbackDetection() Detection {
	return Detection{Intents: []ID{General}, Confidence: Low}
}

// Source tells where a detection came from.
type Source string

const (
	SourcePattern    Source = "pattern"
	SourceClassifier Source = "classifier"
	SourceFallback   Source = "fallback"
)

// Result is what Detect hands back to the caller.
type Result struct {
	Detection       Detection `json:"detection"`
	Reply           string    `json:"reply,omitempty"`
	RequiresContext bool      `json:"requiresContext"`
	Source          Source    `json:"source"`
}
