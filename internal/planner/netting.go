package planner

import (
	"sort"

	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
)

// nettingLeg is one aggregated (from, to) flow inside the optimizer.
// Legs are working state only; they become SwapTrades after batching.
type nettingLeg struct {
	fromMint     string
	fromSymbol   string
	fromDecimals int
	fromAmount   decimal.Decimal
	toMint       string
	toSymbol     string
	toDecimals   int
	toAmount     decimal.Decimal
	usd          decimal.Decimal
}

// sideLedger tracks the unmatched remainder of one intent during
// greedy matching. Intents themselves stay immutable.
type sideLedger struct {
	intent domain.TradeIntent
	remUSD decimal.Decimal
	remAmt decimal.Decimal
}

// netIntents converts directional intents into an ordered list of
// executable swaps: sells and buys netted into direct token-to-token
// legs where possible, leftovers routed through the reference asset,
// aggregated per pair, folded, and split into batches bounded by the
// maximum trade size.
func (p *Planner) netIntents(intents []domain.TradeIntent) []domain.SwapTrade {
	var sells, buys []*sideLedger
	for _, in := range intents {
		l := &sideLedger{intent: in, remUSD: in.USDValue, remAmt: in.Amount}
		switch in.Direction {
		case domain.DirectionSell:
			sells = append(sells, l)
		case domain.DirectionBuy:
			buys = append(buys, l)
		}
	}

	legs := p.matchIntents(sells, buys)
	legs = p.addLeftoverLegs(legs, sells, buys)
	legs = aggregateLegs(legs)
	legs = p.foldIndirectRoutes(legs)
	return p.assembleTrades(legs)
}

// matchIntents pairs each sell against pending buys, emitting one
// direct swap leg per match. Both sides are reduced by their own
// matched fraction; an intent keeps matching while its remainder can
// still form a match at or above the minimum trade size.
func (p *Planner) matchIntents(sells, buys []*sideLedger) []*nettingLeg {
	var legs []*nettingLeg
	for _, s := range sells {
		for _, b := range buys {
			if b.remUSD.Sign() <= 0 {
				continue
			}
			matched := decimal.Min(s.remUSD, b.remUSD)
			if matched.LessThan(p.cfg.MinTradeSizeUSD) {
				if s.remUSD.LessThan(p.cfg.MinTradeSizeUSD) {
					break
				}
				continue
			}

			fromAmt := s.remAmt.Mul(matched).Div(s.remUSD)
			toAmt := b.remAmt.Mul(matched).Div(b.remUSD)
			legs = append(legs, &nettingLeg{
				fromMint:     s.intent.Mint,
				fromSymbol:   s.intent.Symbol,
				fromDecimals: s.intent.Decimals,
				fromAmount:   fromAmt,
				toMint:       b.intent.Mint,
				toSymbol:     b.intent.Symbol,
				toDecimals:   b.intent.Decimals,
				toAmount:     toAmt,
				usd:          matched,
			})
			p.debugf("netting: matched %s -> %s for $%s", s.intent.Symbol, b.intent.Symbol, matched)

			s.remUSD = s.remUSD.Sub(matched)
			s.remAmt = s.remAmt.Sub(fromAmt)
			b.remUSD = b.remUSD.Sub(matched)
			b.remAmt = b.remAmt.Sub(toAmt)
			if s.remUSD.LessThan(p.cfg.MinTradeSizeUSD) {
				break
			}
		}
	}
	return legs
}

// addLeftoverLegs routes every unmatched remainder through the
// reference asset. Reference-asset amounts equal the USD value since
// the reference is pegged at 1 USD.
func (p *Planner) addLeftoverLegs(legs []*nettingLeg, sells, buys []*sideLedger) []*nettingLeg {
	for _, s := range sells {
		if s.remUSD.Sign() <= 0 {
			continue
		}
		legs = append(legs, &nettingLeg{
			fromMint:     s.intent.Mint,
			fromSymbol:   s.intent.Symbol,
			fromDecimals: s.intent.Decimals,
			fromAmount:   s.remAmt,
			toMint:       domain.USDCMint,
			toSymbol:     domain.USDCSymbol,
			toDecimals:   domain.USDCDecimals,
			toAmount:     s.remUSD,
			usd:          s.remUSD,
		})
	}
	for _, b := range buys {
		if b.remUSD.Sign() <= 0 {
			continue
		}
		legs = append(legs, &nettingLeg{
			fromMint:     domain.USDCMint,
			fromSymbol:   domain.USDCSymbol,
			fromDecimals: domain.USDCDecimals,
			fromAmount:   b.remUSD,
			toMint:       b.intent.Mint,
			toSymbol:     b.intent.Symbol,
			toDecimals:   b.intent.Decimals,
			toAmount:     b.remAmt,
			usd:          b.remUSD,
		})
	}
	return legs
}

// aggregateLegs collapses legs sharing a (from, to) pair into one,
// preserving first-seen order.
func aggregateLegs(legs []*nettingLeg) []*nettingLeg {
	type pairKey struct{ from, to string }
	byPair := make(map[pairKey]*nettingLeg)
	var out []*nettingLeg
	for _, l := range legs {
		key := pairKey{l.fromMint, l.toMint}
		if agg, ok := byPair[key]; ok {
			agg.fromAmount = agg.fromAmount.Add(l.fromAmount)
			agg.toAmount = agg.toAmount.Add(l.toAmount)
			agg.usd = agg.usd.Add(l.usd)
			continue
		}
		cp := *l
		byPair[key] = &cp
		out = append(out, &cp)
	}
	return out
}

// foldIndirectRoutes rewrites complementary reference-asset legs
// (X -> ref followed by ref -> Y) into direct X -> Y legs, repeating
// until no remaining fold meets the minimum trade size. Each fold
// removes at least the minimum trade size from the reference legs, so
// the loop terminates.
func (p *Planner) foldIndirectRoutes(legs []*nettingLeg) []*nettingLeg {
	for {
		folded := false
		for _, sellLeg := range legs {
			if sellLeg.toMint != domain.USDCMint || sellLeg.usd.Sign() <= 0 {
				continue
			}
			for _, buyLeg := range legs {
				if buyLeg.fromMint != domain.USDCMint || buyLeg.usd.Sign() <= 0 {
					continue
				}
				if buyLeg.toMint == sellLeg.fromMint {
					continue
				}
				matched := decimal.Min(sellLeg.usd, buyLeg.usd)
				if matched.LessThan(p.cfg.MinTradeSizeUSD) {
					continue
				}

				fromAmt := sellLeg.fromAmount.Mul(matched).Div(sellLeg.usd)
				toAmt := buyLeg.toAmount.Mul(matched).Div(buyLeg.usd)
				legs = append(legs, &nettingLeg{
					fromMint:     sellLeg.fromMint,
					fromSymbol:   sellLeg.fromSymbol,
					fromDecimals: sellLeg.fromDecimals,
					fromAmount:   fromAmt,
					toMint:       buyLeg.toMint,
					toSymbol:     buyLeg.toSymbol,
					toDecimals:   buyLeg.toDecimals,
					toAmount:     toAmt,
					usd:          matched,
				})
				p.debugf("netting: folded %s -> %s -> %s into direct leg ($%s)",
					sellLeg.fromSymbol, domain.USDCSymbol, buyLeg.toSymbol, matched)

				sellLeg.fromAmount = sellLeg.fromAmount.Sub(fromAmt)
				sellLeg.toAmount = sellLeg.toAmount.Sub(matched)
				sellLeg.usd = sellLeg.usd.Sub(matched)
				buyLeg.fromAmount = buyLeg.fromAmount.Sub(matched)
				buyLeg.toAmount = buyLeg.toAmount.Sub(toAmt)
				buyLeg.usd = buyLeg.usd.Sub(matched)
				folded = true
			}
		}
		if !folded {
			break
		}
		legs = aggregateLegs(dropEmpty(legs))
	}
	return dropEmpty(legs)
}

func dropEmpty(legs []*nettingLeg) []*nettingLeg {
	out := legs[:0]
	for _, l := range legs {
		if l.usd.Sign() > 0 {
			out = append(out, l)
		}
	}
	return out
}

// assembleTrades orders the final legs (sells into the reference asset
// first, direct swaps next, buys out of the reference asset last, each
// group sorted by mint pair), drops dust and malformed legs, and splits
// oversized legs into batches of at most the maximum trade size.
func (p *Planner) assembleTrades(legs []*nettingLeg) []domain.SwapTrade {
	rank := func(l *nettingLeg) int {
		switch {
		case l.toMint == domain.USDCMint:
			return 0
		case l.fromMint != domain.USDCMint:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(legs, func(i, j int) bool {
		ri, rj := rank(legs[i]), rank(legs[j])
		if ri != rj {
			return ri < rj
		}
		if legs[i].fromMint != legs[j].fromMint {
			return legs[i].fromMint < legs[j].fromMint
		}
		return legs[i].toMint < legs[j].toMint
	})

	var trades []domain.SwapTrade
	for _, l := range legs {
		if l.usd.LessThan(p.cfg.MinTradeSizeUSD) {
			continue
		}
		if len(l.fromMint) > domain.MaxMintLength || len(l.toMint) > domain.MaxMintLength {
			p.warnf("netting: dropping leg %s -> %s with malformed mint", l.fromMint, l.toMint)
			continue
		}
		trades = append(trades, p.splitBatches(l)...)
	}
	return trades
}

// splitBatches slices one leg into SwapTrades of at most the maximum
// trade size, scaling both amounts per batch. A trailing batch below
// the minimum trade size is dropped.
func (p *Planner) splitBatches(l *nettingLeg) []domain.SwapTrade {
	var trades []domain.SwapTrade
	remaining := l.usd
	for remaining.Sign() > 0 {
		batch := decimal.Min(remaining, p.cfg.MaxTradeSizeUSD)
		if batch.LessThan(p.cfg.MinTradeSizeUSD) {
			p.debugf("netting: dropping trailing $%s batch of %s -> %s", batch, l.fromSymbol, l.toSymbol)
			break
		}
		frac := batch.Div(l.usd)
		trades = append(trades, domain.SwapTrade{
			FromSymbol:   l.fromSymbol,
			FromMint:     l.fromMint,
			FromAmount:   l.fromAmount.Mul(frac),
			FromDecimals: l.fromDecimals,
			ToSymbol:     l.toSymbol,
			ToMint:       l.toMint,
			ToAmount:     l.toAmount.Mul(frac),
			ToDecimals:   l.toDecimals,
			USDValue:     batch,
		})
		remaining = remaining.Sub(batch)
	}
	return trades
}
