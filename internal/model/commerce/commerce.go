package commerce

// Order is the read-only slice of a shop order the chat service needs.
type Order struct {
	ID            string  `json:"order_id"`
	Status        string  `json:"status"`
	Total         float64 `json:"total"`
	CustomerEmail string  `json:"customer_email"`
}

// Product identifies something a customer can start a chat about.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Seed provides the demo catalog used until a real shop backend is attached.
func Seed() ([]Order, []Product) {
	orders := []Order{
		{ID: "42", Status: "pending", Total: 129.90, CustomerEmail: "a@b.com"},
		{ID: "43", Status: "processing", Total: 18.50, CustomerEmail: "buyer@example.com"},
		{ID: "44", Status: "completed", Total: 560.00, CustomerEmail: "office@workcity.example"},
	}
	products := []Product{
		{ID: "7", Name: "Standing Desk"},
		{ID: "8", Name: "Ergonomic Chair"},
		{ID: "9", Name: "Monitor Arm"},
	}
	return orders, products
}
