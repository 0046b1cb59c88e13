// Package taxcenter computes fiscal-year capital-gains reports by matching
// sell events against acquisition lots FIFO (India FY and bucket rules).
package taxcenter

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/models"
)

// ltcgBoundaryDays is the holding period at which a gain becomes long-term.
const ltcgBoundaryDays = 365

// lot is an open quantity-at-cost slice created by a buy/sip event and
// consumed FIFO by later sells. Derived, never persisted.
type lot struct {
	qty   decimal.Decimal
	price decimal.Decimal
	date  time.Time
}

// matchSales replays one holding's full ledger in date order and returns
// realized-sale rows for sells inside [fyStart, fyEnd). Lots are built from
// every buy/sip regardless of the window, since lots can predate it.
//
// A sell that exceeds all available lots produces a best-effort row with
// zero cost flagged as a data gap in the STCG bucket, never a silent drop.
func matchSales(h *models.Holding, entries []*models.InvestmentTransaction, fyStart, fyEnd time.Time) []models.RealizedSale {
	sorted := make([]*models.InvestmentTransaction, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var lots []lot
	var sales []models.RealizedSale

	for _, e := range sorted {
		switch e.Type {
		case models.TxnBuy, models.TxnSIP:
			qty, price, ok := unitsAndPrice(e)
			if !ok {
				continue
			}
			lots = append(lots, lot{qty: qty, price: price, date: e.Date})

		case models.TxnSell:
			qty, salePrice, ok := sellUnitsAndPrice(e)
			if !ok {
				continue
			}
			inWindow := !e.Date.Before(fyStart) && e.Date.Before(fyEnd)
			remaining := qty

			for remaining.IsPositive() && len(lots) > 0 {
				oldest := &lots[0]
				take := decimal.Min(remaining, oldest.qty)
				if inWindow {
					sales = append(sales, saleRow(h, e.Date, oldest.date, take, oldest.price, salePrice, false))
				}
				oldest.qty = oldest.qty.Sub(take)
				remaining = remaining.Sub(take)
				if !oldest.qty.IsPositive() {
					lots = lots[1:]
				}
			}
			// missing buy history: cost unknown, assume zero
			if remaining.IsPositive() && inWindow {
				sales = append(sales, saleRow(h, e.Date, e.Date, remaining, decimal.Zero, salePrice, true))
			}
		}
	}
	return sales
}

func saleRow(h *models.Holding, saleDate, lotDate time.Time, qty, lotPrice, salePrice decimal.Decimal, dataGap bool) models.RealizedSale {
	cost := qty.Mul(lotPrice)
	saleAmount := qty.Mul(salePrice)
	holdingDays := int(saleDate.Sub(lotDate).Hours() / 24)
	bucket := models.BucketSTCG
	if !dataGap && holdingDays >= ltcgBoundaryDays {
		bucket = models.BucketLTCG
	}
	return models.RealizedSale{
		HoldingID:   h.ID,
		Symbol:      h.Symbol,
		SaleDate:    saleDate,
		LotDate:     lotDate,
		Quantity:    qty,
		LotPrice:    lotPrice,
		SalePrice:   salePrice,
		Cost:        cost,
		SaleAmount:  saleAmount,
		Gain:        saleAmount.Sub(cost),
		HoldingDays: holdingDays,
		TaxBucket:   bucket,
		DataGap:     dataGap,
	}
}

// sellUnitsAndPrice derives the per-unit sale price from amount over quantity
// so fee-adjusted proceeds flow into the gain. The explicit price field only
// serves when quantity or amount is missing.
func sellUnitsAndPrice(e *models.InvestmentTransaction) (qty, price decimal.Decimal, ok bool) {
	if e.Quantity != nil && e.Quantity.IsPositive() {
		qty = *e.Quantity
		switch {
		case e.Amount.IsPositive():
			return qty, e.Amount.Div(qty), true
		case e.Price != nil && e.Price.IsPositive():
			return qty, *e.Price, true
		}
		return decimal.Zero, decimal.Zero, false
	}
	if e.Price != nil && e.Price.IsPositive() {
		// quantity missing: derive from amount/price
		return e.Amount.Div(*e.Price), *e.Price, true
	}
	return decimal.Zero, decimal.Zero, false
}

func unitsAndPrice(e *models.InvestmentTransaction) (qty, price decimal.Decimal, ok bool) {
	switch {
	case e.Quantity != nil && e.Quantity.IsPositive():
		qty = *e.Quantity
		if e.Price != nil && e.Price.IsPositive() {
			price = *e.Price
		} else {
			price = e.Amount.Div(qty)
		}
		return qty, price, true
	case e.Price != nil && e.Price.IsPositive():
		// quantity missing: derive from amount/price
		return e.Amount.Div(*e.Price), *e.Price, true
	}
	return decimal.Zero, decimal.Zero, false
}
