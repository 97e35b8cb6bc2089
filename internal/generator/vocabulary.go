package generator

// Vocabulary is the fixed pool of names the generator draws from.
type Vocabulary struct {
	Products  []string `yaml:"products"`
	Customers []string `yaml:"customers"`
	Staff     []string `yaml:"staff"`
	Sources   []string `yaml:"sources"`
}

// DefaultVocabulary returns the built-in store flavour.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Products: []string{
			"Nike Air Max", "Apple iPad Pro", "Samsung TV", "Levi's Jeans",
			"Dyson Vacuum", "Wireless Earbuds",
		},
		Customers: []string{
			"Alex Johnson", "Maria Garcia", "James Smith", "Sarah Lee", "David Kim",
		},
		Staff: []string{
			"Cashier Wilson", "Manager Chen", "Stock Clerk Rodriguez", "Customer Service Thompson",
		},
		Sources: []string{
			"POS System", "Inventory System", "E-Commerce", "Security System",
		},
	}
}

// merged fills empty pools of v from the defaults.
func (v Vocabulary) merged() Vocabulary {
	d := DefaultVocabulary()
	if len(v.Products) == 0 {
		v.Products = d.Products
	}
	if len(v.Customers) == 0 {
		v.Customers = d.Customers
	}
	if len(v.Staff) == 0 {
		v.Staff = d.Staff
	}
	if len(v.Sources) == 0 {
		v.Sources = d.Sources
	}
	return v
}

var (
	paymentMethods   = []string{"Credit Card", "Cash", "Mobile Pay", "Gift Card"}
	storeLocations   = []string{"Main Store", "Mall Kiosk", "Outlet"}
	warehouses       = []string{"Main Warehouse", "Store Backroom", "Distribution Center"}
	loyaltyTiers     = []string{"Bronze", "Silver", "Gold", "Platinum"}
	carriers         = []string{"UPS", "FedEx", "DHL", "USPS"}
	shipmentStatuses = []string{"In Transit", "Delayed", "Received", "Processing"}
	cardMethods      = []string{"Credit Card", "Debit Card", "Gift Card", "Store Credit"}
	processors       = []string{"Visa", "Mastercard", "Amex", "Discover"}
	staffRoles       = []string{"Cashier", "Manager", "Stock Clerk", "Customer Service"}
	performance      = []string{"On Target", "Exceeding", "Needs Improvement"}
	systemNames      = []string{"POS Terminal", "Inventory Database", "Security System", "E-Commerce Platform"}
	systemStatuses   = []string{"Online", "Offline", "Maintenance", "Update"}
	systemActions    = []string{"Rebooted", "Patched", "Monitoring", "Technician Dispatched"}
)
