package offer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetick/movie-booking-api/internal/offer"
)

func defaultEngine() *offer.Engine {
	return offer.NewEngine(offer.DefaultRules())
}

func TestEvaluateUnknownCode(t *testing.T) {
	res := defaultEngine().Evaluate(offer.Input{NumTickets: 2, SubtotalCents: 50000}, "NOPE")
	assert.Nil(t, res.Applied)
	assert.Zero(t, res.DiscountCents)
	assert.Equal(t, uint32(50000), res.FinalTotalCents)
}

func TestEvaluatePercentOff(t *testing.T) {
	res := defaultEngine().Evaluate(offer.Input{NumTickets: 2, SubtotalCents: 50000, IsFirstBooking: true}, "FIRSTSHOW")
	require.NotNil(t, res.Applied)
	assert.Equal(t, "FIRSTSHOW", res.Applied.Code)
	assert.Equal(t, uint32(10000), res.DiscountCents)
	assert.Equal(t, uint32(40000), res.FinalTotalCents)
}

func TestEvaluatePercentOffCap(t *testing.T) {
	// 20% of 150000 is 30000, capped at 20000.
	res := defaultEngine().Evaluate(offer.Input{NumTickets: 6, SubtotalCents: 150000, IsFirstBooking: true}, "FIRSTSHOW")
	require.NotNil(t, res.Applied)
	assert.Equal(t, uint32(20000), res.DiscountCents)
	assert.Equal(t, uint32(130000), res.FinalTotalCents)
}

func TestEvaluateFirstBookingGate(t *testing.T) {
	res := defaultEngine().Evaluate(offer.Input{NumTickets: 2, SubtotalCents: 50000, IsFirstBooking: false}, "FIRSTSHOW")
	assert.Nil(t, res.Applied)
	assert.Equal(t, uint32(50000), res.FinalTotalCents)
}

func TestEvaluateMinTicketsGate(t *testing.T) {
	eng := defaultEngine()

	res := eng.Evaluate(offer.Input{NumTickets: 3, SubtotalCents: 90000}, "GROUP4")
	assert.Nil(t, res.Applied)

	res = eng.Evaluate(offer.Input{NumTickets: 4, SubtotalCents: 90000}, "GROUP4")
	require.NotNil(t, res.Applied)
	assert.Equal(t, uint32(40000), res.DiscountCents)
	assert.Equal(t, uint32(50000), res.FinalTotalCents)
}

func TestEvaluateFlatDiscountNeverExceedsSubtotal(t *testing.T) {
	res := defaultEngine().Evaluate(offer.Input{NumTickets: 4, SubtotalCents: 30000}, "GROUP4")
	require.NotNil(t, res.Applied)
	assert.Equal(t, uint32(30000), res.DiscountCents)
	assert.Zero(t, res.FinalTotalCents)
}

func TestEvaluateCodeNormalization(t *testing.T) {
	res := defaultEngine().Evaluate(offer.Input{NumTickets: 2, SubtotalCents: 50000}, "  weekday10 ")
	require.NotNil(t, res.Applied)
	assert.Equal(t, "WEEKDAY10", res.Applied.Code)
	assert.Equal(t, uint32(5000), res.DiscountCents)
}
