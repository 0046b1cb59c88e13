package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tax buckets by holding period (India equity convention, 365-day boundary).
const (
	BucketSTCG = "STCG"
	BucketLTCG = "LTCG"
)

// RealizedSale is one FIFO lot match for a sell event: the slice of a sale
// satisfied by a single acquisition lot.
type RealizedSale struct {
	HoldingID   string          `json:"holding_id"`
	Symbol      string          `json:"symbol"`
	SaleDate    time.Time       `json:"sale_date"`
	LotDate     time.Time       `json:"lot_date"`
	Quantity    decimal.Decimal `json:"quantity"`
	LotPrice    decimal.Decimal `json:"lot_price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	Cost        decimal.Decimal `json:"cost"`
	SaleAmount  decimal.Decimal `json:"sale_amount"`
	Gain        decimal.Decimal `json:"gain"`
	HoldingDays int             `json:"holding_days"`
	TaxBucket   string          `json:"tax_bucket"`
	DataGap     bool            `json:"data_gap,omitempty"` // sell exceeded known lots; cost assumed zero
}

// MonthlyGain is a per-month realized gain rollup inside the FY window.
type MonthlyGain struct {
	Month string          `json:"month"` // "2024-04"
	STCG  decimal.Decimal `json:"stcg"`
	LTCG  decimal.Decimal `json:"ltcg"`
	Net   decimal.Decimal `json:"net"`
}

// TaxReport is the tax-center output for one fiscal year. The tax figures
// are flat-rate estimates, not tax advice.
type TaxReport struct {
	FYStartYear       int             `json:"fy_start_year"`
	FYStart           time.Time       `json:"fy_start"`
	FYEnd             time.Time       `json:"fy_end"`
	Sales             []RealizedSale  `json:"sales"`
	STCGGain          decimal.Decimal `json:"stcg_gain"`
	LTCGGain          decimal.Decimal `json:"ltcg_gain"`
	NetGain           decimal.Decimal `json:"net_gain"`
	TaxableLTCG       decimal.Decimal `json:"taxable_ltcg"`
	STCGTax           decimal.Decimal `json:"stcg_tax"`
	LTCGTax           decimal.Decimal `json:"ltcg_tax"`
	Monthly           []MonthlyGain   `json:"monthly"`
	HarvestCandidates []RealizedSale  `json:"harvest_candidates"`
}
