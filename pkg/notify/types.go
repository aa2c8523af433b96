package notify

// OrderItem is one line of the order as seen by store staff.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderNotification is the JSON body accepted by the notification endpoint.
type OrderNotification struct {
	StoreID           string      `json:"storeId"`
	BuyerHandle       string      `json:"buyerHandle"`
	TransactionNumber string      `json:"transactionNumber"`
	ShippingAddress   string      `json:"shippingAddress"`
	PhoneNumber       string      `json:"phoneNumber"`
	Remark            string      `json:"remark"`
	Items             []OrderItem `json:"items"`
	TotalAmount       float64     `json:"totalAmount"`
	PaymentMethod     string      `json:"paymentMethod"`
}
