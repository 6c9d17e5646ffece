// Package offer computes promotional discounts.  Evaluation is a pure
// function over the booking totals; applying the result to a booking
// is the caller's job.
package offer

import "strings"

// Input carries the booking facts an offer rule may condition on.
type Input struct {
	NumTickets     int
	SubtotalCents  uint32
	MovieID        uint64
	IsFirstBooking bool
}

// Result is the outcome of evaluating a promo code.  Applied is nil
// when the code did not match or its conditions were not met, in which
// case DiscountCents is zero and FinalTotalCents equals the subtotal.
type Result struct {
	DiscountCents   uint32
	FinalTotalCents uint32
	Applied         *Rule
}

// Rule describes one promotional offer.  Exactly one of PercentOff /
// FlatOffCents is set.  MinTickets and FirstBookingOnly gate
// eligibility; MaxDiscountCents caps percentage discounts.
type Rule struct {
	Code             string
	Description      string
	PercentOff       uint32
	FlatOffCents     uint32
	MinTickets       int
	FirstBookingOnly bool
	MaxDiscountCents uint32
}

// Engine evaluates promo codes against a fixed rule set.
type Engine struct {
	rules map[string]Rule
}

// NewEngine builds an engine from the given rules, keyed by upper-cased
// code.
func NewEngine(rules []Rule) *Engine {
	m := make(map[string]Rule, len(rules))
	for _, r := range rules {
		m[strings.ToUpper(r.Code)] = r
	}
	return &Engine{rules: m}
}

// DefaultRules is the built-in promotion catalog.
func DefaultRules() []Rule {
	return []Rule{
		{Code: "FIRSTSHOW", Description: "20% off your first booking", PercentOff: 20, FirstBookingOnly: true, MaxDiscountCents: 20000},
		{Code: "GROUP4", Description: "Flat 400 off for 4+ tickets", FlatOffCents: 40000, MinTickets: 4},
		{Code: "WEEKDAY10", Description: "10% off", PercentOff: 10, MaxDiscountCents: 15000},
	}
}

// Evaluate applies the rule registered under code to the input.  An
// unknown or ineligible code yields a zero discount, never an error:
// promo failure must not break the totals it decorates.
func (e *Engine) Evaluate(in Input, code string) Result {
	res := Result{FinalTotalCents: in.SubtotalCents}
	rule, ok := e.rules[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return res
	}
	if rule.MinTickets > 0 && in.NumTickets < rule.MinTickets {
		return res
	}
	if rule.FirstBookingOnly && !in.IsFirstBooking {
		return res
	}
	var discount uint32
	switch {
	case rule.PercentOff > 0:
		discount = in.SubtotalCents * rule.PercentOff / 100
		if rule.MaxDiscountCents > 0 && discount > rule.MaxDiscountCents {
			discount = rule.MaxDiscountCents
		}
	case rule.FlatOffCents > 0:
		discount = rule.FlatOffCents
	}
	if discount > in.SubtotalCents {
		discount = in.SubtotalCents
	}
	res.DiscountCents = discount
	res.FinalTotalCents = in.SubtotalCents - discount
	res.Applied = &rule
	return res
}
