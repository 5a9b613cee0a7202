package planner

import (
	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
)

// position is the canonical-mint view of one asset across both
// portfolios. Alias variants (e.g. stablecoin flavors) fold into a
// single position before any risk rule is applied.
type position struct {
	mint     string
	symbol   string
	decimals int
	metaOwn  bool // metadata taken from the canonical mint's own record

	currentWeight decimal.Decimal
	targetWeight  decimal.Decimal
	currentUSD    decimal.Decimal
	currentAmount decimal.Decimal
}

// diffIntents compares current vs. target weights per canonical mint
// and emits directional trade intents sized in USD. The reference
// asset and any excluded mints are never traded.
func (p *Planner) diffIntents(current, target *domain.Portfolio, prices map[string]decimal.Decimal) []domain.TradeIntent {
	positions := make(map[string]*position)
	var order []string

	upsert := func(mint string) *position {
		canonical := p.aliases.Resolve(mint)
		pos, ok := positions[canonical]
		if !ok {
			pos = &position{mint: canonical}
			positions[canonical] = pos
			order = append(order, canonical)
		}
		return pos
	}
	adoptMeta := func(pos *position, b *domain.TokenBalance) {
		if pos.metaOwn {
			return
		}
		if pos.symbol == "" || b.Mint == pos.mint {
			pos.symbol = b.Symbol
			pos.decimals = b.Decimals
			pos.metaOwn = b.Mint == pos.mint
		}
	}

	for _, mint := range sortedMints(current.Balances) {
		b := current.Balances[mint]
		pos := upsert(mint)
		adoptMeta(pos, b)
		pos.currentWeight = pos.currentWeight.Add(current.Weight(mint))
		pos.currentUSD = pos.currentUSD.Add(b.USDValue)
		pos.currentAmount = pos.currentAmount.Add(b.Amount)
	}
	for _, mint := range sortedMints(target.Balances) {
		b := target.Balances[mint]
		pos := upsert(mint)
		adoptMeta(pos, b)
		pos.targetWeight = pos.targetWeight.Add(target.Weight(mint))
	}

	var intents []domain.TradeIntent
	for _, mint := range order {
		pos := positions[mint]
		if mint == domain.USDCMint || p.excluded[mint] {
			continue
		}

		// Below-threshold target: liquidate the whole position if it is
		// large enough to act on, regardless of tolerance.
		if pos.targetWeight.LessThan(p.cfg.MinWeightThreshold) {
			if pos.currentUSD.GreaterThan(p.cfg.MinTradeSizeUSD) {
				p.debugf("diff: %s target weight %s below threshold, liquidating $%s",
					pos.symbol, pos.targetWeight, pos.currentUSD)
				intents = append(intents, domain.TradeIntent{
					Direction: domain.DirectionSell,
					Mint:      pos.mint,
					Symbol:    pos.symbol,
					Decimals:  pos.decimals,
					USDValue:  pos.currentUSD,
					Amount:    pos.currentAmount,
				})
			}
			continue
		}

		weightDiff := pos.targetWeight.Sub(pos.currentWeight).Abs()
		if weightDiff.LessThanOrEqual(p.cfg.WeightTolerance) {
			continue
		}

		tradeValue := current.TotalValueUSD.Mul(weightDiff)
		direction := domain.DirectionSell
		if pos.targetWeight.GreaterThan(pos.currentWeight) {
			direction = domain.DirectionBuy
		}

		liquidate := false
		if direction == domain.DirectionSell {
			// A partial sell that would strand a dust remainder rounds
			// up to a full liquidation.
			remainder := pos.currentUSD.Sub(tradeValue)
			if remainder.Sign() > 0 && remainder.LessThan(p.cfg.MinTradeSizeUSD) {
				tradeValue = pos.currentUSD
				liquidate = true
			}
		}
		if tradeValue.LessThan(p.cfg.MinTradeSizeUSD) {
			continue
		}

		amount := decimal.Zero
		if liquidate {
			amount = pos.currentAmount
		} else if price, ok := prices[pos.mint]; ok && price.Sign() > 0 {
			amount = tradeValue.Div(price)
		} else {
			p.warnf("diff: no price for %s (%s), amount unresolved", pos.symbol, pos.mint)
		}

		p.debugf("diff: %s %s $%s (weight %s -> %s)",
			direction, pos.symbol, tradeValue, pos.currentWeight, pos.targetWeight)
		intents = append(intents, domain.TradeIntent{
			Direction: direction,
			Mint:      pos.mint,
			Symbol:    pos.symbol,
			Decimals:  pos.decimals,
			USDValue:  tradeValue,
			Amount:    amount,
		})
	}
	return intents
}
