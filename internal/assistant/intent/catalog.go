package intent

import "strings"

var (
	baseTier = []ID{Greeting, Help, Thanks, Confirm, Reject, General}

	customerTier = []ID{
		ProductSearch, ProductDetails, ProductRecommendation, CategoryBrowse,
		ViewCart, AddToCart, RemoveFromCart,
		ViewWishlist, AddToWishlist, RemoveFromWishlist,
		OrderStatus, OrderHistory, VoucherInfo,
	}

	vendorTier = []ID{StoreProducts, StoreOrders, StoreSales, LowStock}

	adminTier = []ID{PlatformStats, UserManagement, VendorManagement, VoucherManagement}
)

// descriptions feed the classification prompt.
var descriptions = map[ID]string{
	Greeting:              "the user says hello",
	Help:                  "the user asks what the assistant can do",
	Thanks:                "the user thanks the assistant",
	Confirm:               "the user agrees to a proposed action",
	Reject:                "the user declines a proposed action",
	General:               "anything that fits no other intent",
	ProductSearch:         "find products by name, keyword or price",
	ProductDetails:        "details about one named product",
	ProductRecommendation: "asks for suggestions or best sellers",
	CategoryBrowse:        "list products in a category",
	ViewCart:              "show the shopping cart",
	AddToCart:             "put a named product into the cart",
	RemoveFromCart:        "take a named product out of the cart",
	ViewWishlist:          "show the wishlist",
	AddToWishlist:         "save a named product to the wishlist",
	RemoveFromWishlist:    "remove a named product from the wishlist",
	OrderStatus:           "status or tracking of one order",
	OrderHistory:          "list past orders",
	VoucherInfo:           "available vouchers or discount codes",
	StoreProducts:         "the vendor's own product listings",
	StoreOrders:           "orders placed at the vendor's store",
	StoreSales:            "sales figures of the vendor's store",
	LowStock:              "the vendor's products that are running out",
	PlatformStats:         "platform-wide statistics",
	UserManagement:        "look up or manage user accounts",
	VendorManagement:      "look up or manage vendors",
	VoucherManagement:     "create or manage vouchers",
}

// Catalog is the static role to intent allow-list. Privilege is cumulative:
// customer is a subset of vendor, vendor of admin.
type Catalog struct {
	ordered map[Role][]ID
	allowed map[Role]map[ID]struct{}
}

// DefaultCatalog builds the shop's catalog from the tier tables.
func DefaultCatalog() *Catalog {
	return NewCatalog(map[Role][][]ID{
		RoleCustomer: {baseTier, customerTier},
		RoleVendor:   {baseTier, customerTier, vendorTier},
		RoleAdmin:    {baseTier, customerTier, vendorTier, adminTier},
	})
}

// NewCatalog builds a catalog from per-role tier lists.
func NewCatalog(grants map[Role][][]ID) *Catalog {
	c := &Catalog{
		ordered: make(map[Role][]ID, len(grants)),
		allowed: make(map[Role]map[ID]struct{}, len(grants)),
	}
	for role, tiers := range grants {
		set := make(map[ID]struct{})
		var list []ID
		for _, tier := range tiers {
			for _, id := range tier {
				if _, dup := set[id]; dup {
					continue
				}
				set[id] = struct{}{}
				list = append(list, id)
			}
		}
		c.ordered[role] = list
		c.allowed[role] = set
	}
	return c
}

// ResolveRole maps a caller-supplied role to a catalog role. Unknown roles get
// customer privileges.
func (c *Catalog) ResolveRole(role Role) Role {
	r := Role(strings.ToLower(strings.TrimSpace(string(role))))
	if _, ok := c.allowed[r]; ok {
		return r
	}
	return RoleCustomer
}

// IntentsForRole returns the role's intents in catalog order.
func (c *Catalog) IntentsForRole(role Role) []ID {
	src := c.ordered[c.ResolveRole(role)]
	out := make([]ID, len(src))
	copy(out, src)
	return out
}

func (c *Catalog) IsAllowed(id ID, role Role) bool {
	_, ok := c.allowed[c.ResolveRole(role)][id]
	return ok
}

// Describe returns the prompt description of an intent.
func Describe(id ID) string {
	return descriptions[id]
}
