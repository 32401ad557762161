package balances

import (
	"math"
	"strconv"

	"wallet-risk-scorer/internal/domain"
)

// balancesResponse is the raw envelope of the balances_v2 endpoint.
type balancesResponse struct {
	Data         *balancesData `json:"data"`
	Error        bool          `json:"error"`
	ErrorMessage string        `json:"error_message"`
	ErrorCode    *int          `json:"error_code"`
}

type balancesData struct {
	Address string        `json:"address"`
	ChainID int64         `json:"chain_id"`
	Items   []balanceItem `json:"items"`
}

// balanceItem is one token holding as reported by the API. Balance is the
// raw integer amount as a decimal string; QuoteRate and Quote may be null
// for unpriced tokens.
type balanceItem struct {
	ContractAddress  string   `json:"contract_address"`
	ContractTicker   string   `json:"contract_ticker_symbol"`
	ContractDecimals int      `json:"contract_decimals"`
	Balance          string   `json:"balance"`
	QuoteRate        *float64 `json:"quote_rate"`
	Quote            *float64 `json:"quote"`
}

// toEntry converts a raw item into a domain entry. The USD value is
// recomputed from quantity × rate and clamped to ≥ 0 rather than trusting
// the API's quote field blindly; when the two disagree the recomputed
// value wins.
func (it balanceItem) toEntry(chain domain.ChainID) domain.ChainBalanceEntry {
	e := domain.ChainBalanceEntry{
		Chain:           chain,
		ContractAddress: it.ContractAddress,
		Symbol:          it.ContractTicker,
		QuoteRate:       it.QuoteRate,
	}

	raw, err := strconv.ParseFloat(it.Balance, 64)
	if err == nil && raw > 0 {
		e.Quantity = raw / math.Pow10(it.ContractDecimals)
	}

	if it.QuoteRate != nil {
		e.QuoteUSD = e.Quantity * *it.QuoteRate
		if e.QuoteUSD < 0 || math.IsNaN(e.QuoteUSD) || math.IsInf(e.QuoteUSD, 0) {
			e.QuoteUSD = 0
		}
	}

	return e
}
