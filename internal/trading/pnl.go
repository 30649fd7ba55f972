package trading

import (
	"github.com/shopspring/decimal"

	"github.com/betbot/gokx/okx/client"
)

// Tracked bill type codes.
const (
	BillTypeTrade      = "2"
	BillTypeInterest   = "7"
	BillTypeFundingFee = "8"
)

// BillDetail is one aggregated ledger entry, retained for auditability.
type BillDetail struct {
	InstID  string  `json:"instId"`
	Type    string  `json:"type"`
	SubType string  `json:"subType"`
	PnL     float64 `json:"pnl"`
	Fee     float64 `json:"fee"`
	BalChg  float64 `json:"balChg"`
	Ts      string  `json:"ts"`
	Px      string  `json:"px"`
	Sz      string  `json:"sz"`
}

// PnLSummary is the realized P&L reduction of a bill stream.
//
// NetPnl is the balance-change sum across all tracked entries and is the
// single source of truth for realized net P&L: it already subsumes fees and
// funding, so callers must not subtract TotalFee from it again. (An earlier
// revision of this system derived net P&L from fills history minus fees;
// the two definitions are not interchangeable and the bills-based one is
// canonical here.)
type PnLSummary struct {
	TotalPnl   float64      `json:"total_pnl"`
	TotalFee   float64      `json:"total_fee"`
	FundingFee float64      `json:"funding_fee"`
	NetPnl     float64      `json:"net_pnl"`
	TradeCount int          `json:"trade_count"`
	Trades     []BillDetail `json:"trades"`
}

// AggregateBills reduces a bill stream to a P&L summary. Pure computation;
// sums are accumulated in decimal so fee and balance-change totals stay
// exact.
func AggregateBills(bills []client.Bill) PnLSummary {
	var (
		totalPnl   = decimal.Zero
		totalFee   = decimal.Zero
		fundingFee = decimal.Zero
		balChgSum  = decimal.Zero
	)
	details := []BillDetail{}

	for _, bill := range bills {
		switch bill.Type {
		case BillTypeTrade, BillTypeInterest, BillTypeFundingFee:
		default:
			continue
		}

		pnl := parseDecimal(bill.PnL)
		fee := parseDecimal(bill.Fee)
		balChg := parseDecimal(bill.BalChg)

		totalPnl = totalPnl.Add(pnl)
		// fee is negative for charges, positive for rebates
		totalFee = totalFee.Add(fee.Abs())
		balChgSum = balChgSum.Add(balChg)
		if bill.Type == BillTypeFundingFee {
			fundingFee = fundingFee.Add(balChg)
		}

		details = append(details, BillDetail{
			InstID:  bill.InstID,
			Type:    bill.Type,
			SubType: bill.SubType,
			PnL:     pnl.InexactFloat64(),
			Fee:     fee.InexactFloat64(),
			BalChg:  balChg.InexactFloat64(),
			Ts:      bill.Ts,
			Px:      bill.Px,
			Sz:      bill.Sz,
		})
	}

	return PnLSummary{
		TotalPnl:   totalPnl.InexactFloat64(),
		TotalFee:   totalFee.InexactFloat64(),
		FundingFee: fundingFee.InexactFloat64(),
		NetPnl:     balChgSum.InexactFloat64(),
		TradeCount: len(details),
		Trades:     details,
	}
}

// PnLSummary fetches the account's bills for the query range and reduces
// them. A bills fetch failure passes through verbatim.
func (o *Orchestrator) PnLSummary(q client.HistoryQuery) *client.Response {
	billsResp := o.client.GetBills(q)
	if !billsResp.IsOK() {
		return billsResp
	}

	var bills []client.Bill
	if err := billsResp.DataInto(&bills); err != nil {
		return client.Failure("Request failed: parse bills: " + err.Error())
	}

	return client.Wrap(AggregateBills(bills))
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
