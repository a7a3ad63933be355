package fbr

// InvoiceDocument is the payload the FBR digital-invoicing API accepts.
// Field names are a fixed external contract; a naming mismatch is a hard
// failure on the Authority's side, not a style choice.
type InvoiceDocument struct {
	InvoiceType           string        `json:"invoiceType"`
	InvoiceDate           string        `json:"invoiceDate"` // 2006-01-02
	SellerNTNCNIC         string        `json:"sellerNTNCNIC"`
	SellerBusinessName    string        `json:"sellerBusinessName"`
	SellerProvince        string        `json:"sellerProvince"`
	SellerAddress         string        `json:"sellerAddress"`
	BuyerNTNCNIC          string        `json:"buyerNTNCNIC"`
	BuyerBusinessName     string        `json:"buyerBusinessName"`
	BuyerProvince         string        `json:"buyerProvince"`
	BuyerAddress          string        `json:"buyerAddress"`
	BuyerRegistrationType string        `json:"buyerRegistrationType"` // "Registered" | "Unregistered"
	InvoiceRefNo          string        `json:"invoiceRefNo"`
	ScenarioID            string        `json:"scenarioId,omitempty"` // sandbox test scenario; empty in production
	Items                 []InvoiceItem `json:"items"`
}

// InvoiceItem is one invoice line in the Authority's schema. Monetary fields
// are rounded to 2 decimals before they land here.
type InvoiceItem struct {
	HSCode                   string  `json:"hsCode"`
	ProductDescription       string  `json:"productDescription"`
	Rate                     string  `json:"rate"` // "18%"
	UoM                      string  `json:"uoM"`
	Quantity                 float64 `json:"quantity"`
	TotalValues              float64 `json:"totalValues"`
	ValueSalesExcludingST    float64 `json:"valueSalesExcludingST"`
	FixedNotifiedValue       float64 `json:"fixedNotifiedValueOrRetailPrice"`
	SalesTaxApplicable       float64 `json:"salesTaxApplicable"`
	SalesTaxWithheldAtSource float64 `json:"salesTaxWithheldAtSource"`
	ExtraTax                 float64 `json:"extraTax"`
	FurtherTax               float64 `json:"furtherTax"`
	SROScheduleNo            string  `json:"sroScheduleNo"`
	FEDPayable               float64 `json:"fedPayable"`
	Discount                 float64 `json:"discount"`
	SaleType                 string  `json:"saleType"`
	SROItemSerialNo          string  `json:"sroItemSerialNo"`
}
