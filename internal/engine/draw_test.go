package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubSource struct {
	numbers []string
	err     error
	asked   int
}

func (s *stubSource) WinningNumbers(_ context.Context, count int, _ EffectiveConfig) ([]string, error) {
	s.asked = count
	return s.numbers, s.err
}

func pool(owner primitive.ObjectID, numbers ...string) []models.RaffleNumber {
	out := make([]models.RaffleNumber, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, models.RaffleNumber{UserID: owner, Number: n})
	}
	return out
}

func TestDrawEmptyRaffle(t *testing.T) {
	e := NewDrawEngine(rand.NewPCG(1, 1), nil)
	_, err := e.Draw(context.Background(), DrawRequest{Strategy: StrategyAutomatic})
	assert.ErrorIs(t, err, ErrDrawEmptyRaffle)
}

func TestDrawAutomaticTiers(t *testing.T) {
	e := NewDrawEngine(rand.NewPCG(2, 2), nil)
	alice := primitive.NewObjectID()
	numbers := pool(alice, "00001", "00002", "00003", "00004", "00005")

	res, err := e.Draw(context.Background(), DrawRequest{
		Numbers:  numbers,
		Strategy: StrategyAutomatic,
		Tiers: []models.PrizeTier{
			{Name: "Second", NumbersRequired: 2, Order: 2},
			{Name: "First", NumbersRequired: 1, Order: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.WinningNumbers, 3)
	require.Len(t, res.Tiers, 2)

	assert.Equal(t, "First", res.Tiers[0].TierName)
	assert.Len(t, res.Tiers[0].Slots, 1)
	assert.Equal(t, "Second", res.Tiers[1].TierName)
	assert.Len(t, res.Tiers[1].Slots, 2)

	seen := map[string]bool{}
	for _, n := range res.WinningNumbers {
		assert.False(t, seen[n], "winning number repeated")
		seen[n] = true
	}
	require.NotNil(t, res.WinnerUserID)
	assert.Equal(t, alice, *res.WinnerUserID)
	assert.Zero(t, res.Unmatched)
}

func TestDrawAutomaticFewerNumbersThanRequired(t *testing.T) {
	e := NewDrawEngine(rand.NewPCG(3, 3), nil)
	numbers := pool(primitive.NewObjectID(), "00010", "00020")

	res, err := e.Draw(context.Background(), DrawRequest{
		Numbers:  numbers,
		Strategy: StrategyAutomatic,
		Tiers:    []models.PrizeTier{{Name: "Top", NumbersRequired: 5, Order: 1}},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"00010", "00020"}, res.WinningNumbers)
	assert.Len(t, res.Tiers[0].Slots, 2)
}

func TestDrawDefaultTier(t *testing.T) {
	e := NewDrawEngine(rand.NewPCG(4, 4), nil)
	res, err := e.Draw(context.Background(), DrawRequest{
		Numbers:  pool(primitive.NewObjectID(), "00001", "00002", "00003"),
		Strategy: StrategyAutomatic,
	})
	require.NoError(t, err)
	assert.Len(t, res.WinningNumbers, 1)
	require.Len(t, res.Tiers, 1)
	assert.Equal(t, "Prize", res.Tiers[0].TierName)
}

func TestDrawManual(t *testing.T) {
	e := NewDrawEngine(nil, nil)
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	numbers := append(pool(alice, "00001"), pool(bob, "00002")...)

	t.Run("blank input", func(t *testing.T) {
		_, err := e.Draw(context.Background(), DrawRequest{Numbers: numbers, Strategy: StrategyManual, Manual: []string{" ", ""}})
		assert.ErrorIs(t, err, ErrDrawInsufficientInput)
	})

	t.Run("unknown number has no winner", func(t *testing.T) {
		res, err := e.Draw(context.Background(), DrawRequest{
			Numbers:  numbers,
			Strategy: StrategyManual,
			Manual:   []string{" 99999 ", "00002"},
			Tiers: []models.PrizeTier{
				{Name: "First", NumbersRequired: 1, Order: 1},
				{Name: "Second", NumbersRequired: 1, Order: 2},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"99999", "00002"}, res.WinningNumbers)
		assert.Nil(t, res.Tiers[0].Slots[0].UserID)
		require.NotNil(t, res.Tiers[1].Slots[0].UserID)
		assert.Equal(t, bob, *res.Tiers[1].Slots[0].UserID)
		require.NotNil(t, res.WinnerUserID)
		assert.Equal(t, bob, *res.WinnerUserID)
		assert.Equal(t, 1, res.Unmatched)
	})

	t.Run("extra numbers kept in flat list only", func(t *testing.T) {
		res, err := e.Draw(context.Background(), DrawRequest{
			Numbers:  numbers,
			Strategy: StrategyManual,
			Manual:   []string{"00001", "00002"},
		})
		require.NoError(t, err)
		assert.Len(t, res.WinningNumbers, 2)
		assert.Len(t, res.Tiers[0].Slots, 1)
		assert.Equal(t, alice, *res.WinnerUserID)
	})
}

func TestDrawExternal(t *testing.T) {
	numbers := pool(primitive.NewObjectID(), "00001", "00002", "00003")
	tiers := []models.PrizeTier{{Name: "Top", NumbersRequired: 2, Order: 1}}

	t.Run("no source", func(t *testing.T) {
		e := NewDrawEngine(nil, nil)
		_, err := e.Draw(context.Background(), DrawRequest{Numbers: numbers, Strategy: StrategyExternal})
		assert.ErrorIs(t, err, ErrNoExternalSource)
	})

	t.Run("truncates extra numbers", func(t *testing.T) {
		src := &stubSource{numbers: []string{"12345", "00003", "54321"}}
		e := NewDrawEngine(nil, src)
		res, err := e.Draw(context.Background(), DrawRequest{Numbers: numbers, Strategy: StrategyExternal, Tiers: tiers})
		require.NoError(t, err)
		assert.Equal(t, 2, src.asked)
		assert.Equal(t, []string{"12345", "00003"}, res.WinningNumbers)
		assert.Equal(t, 1, res.Unmatched)
	})

	t.Run("source failure", func(t *testing.T) {
		boom := errors.New("feed down")
		e := NewDrawEngine(nil, &stubSource{err: boom})
		_, err := e.Draw(context.Background(), DrawRequest{Numbers: numbers, Strategy: StrategyExternal, Tiers: tiers})
		assert.ErrorIs(t, err, boom)
	})
}

func TestDrawUnknownStrategy(t *testing.T) {
	e := NewDrawEngine(nil, nil)
	_, err := e.Draw(context.Background(), DrawRequest{Numbers: pool(primitive.NewObjectID(), "1"), Strategy: "DICE"})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy(" automatic ")
	require.NoError(t, err)
	assert.Equal(t, StrategyAutomatic, s)

	_, err = ParseStrategy("random")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestRequiredTotal(t *testing.T) {
	assert.Equal(t, 3, RequiredTotal([]models.PrizeTier{{NumbersRequired: 1}, {NumbersRequired: 2}, {NumbersRequired: -4}}))
}
