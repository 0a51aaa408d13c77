package deal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNewDeal(t *testing.T, totalPrice float64, nights int) *Deal {
	t.Helper()
	d, err := NewDeal(
		"Carnival", "Carnival Splendor", "South Pacific", "Sydney",
		time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC), nights, totalPrice,
		"Interior", "", "https://example.com/cruise/1", "",
		time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return d
}

func TestNewDeal_DerivesPricePerNight(t *testing.T) {
	d := mustNewDeal(t, 1234.50, 7)
	assert.Equal(t, 176.36, d.PricePerNight())
	assert.Equal(t, 1234.50, d.TotalPrice())
}

func TestNewDeal_Validation(t *testing.T) {
	departure := time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)
	seen := time.Now().UTC()

	_, err := NewDeal("Carnival", "", "", "", departure, 7, 999, "", "", "", "", seen)
	assert.Error(t, err, "empty ship name must be rejected")

	_, err = NewDeal("Carnival", "Splendor", "", "", departure, 0, 999, "", "", "", "", seen)
	assert.Error(t, err, "zero nights must be rejected")

	_, err = NewDeal("Carnival", "Splendor", "", "", departure, 7, 0, "", "", "", "", seen)
	assert.Error(t, err, "zero price must be rejected")
}

func TestNewDeal_DefaultsCabinType(t *testing.T) {
	d, err := NewDeal("Carnival", "Splendor", "", "Sydney",
		time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC), 7, 999,
		"", "", "", "", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "Interior", d.CabinType())
}

func TestNaturalKey_IsCaseInsensitive(t *testing.T) {
	departure := time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t,
		MakeNaturalKey("Carnival Splendor", departure, "Interior"),
		MakeNaturalKey("CARNIVAL SPLENDOR", departure, "interior"),
	)
	assert.Equal(t,
		"carnival splendor|2026-11-14|interior",
		MakeNaturalKey("  Carnival Splendor ", departure, "Interior"),
	)
}

func TestNaturalKey_DistinguishesCabinAndDate(t *testing.T) {
	departure := time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)
	interior := MakeNaturalKey("Splendor", departure, "Interior")
	balcony := MakeNaturalKey("Splendor", departure, "Balcony")
	assert.NotEqual(t, interior, balcony)

	later := MakeNaturalKey("Splendor", departure.AddDate(0, 0, 1), "Interior")
	assert.NotEqual(t, interior, later)
}

func TestObserve_UpdatesMutableFieldsAndReactivates(t *testing.T) {
	existing := mustNewDeal(t, 1400, 7)
	firstSeen := existing.FirstSeen()
	existing.Deactivate()
	require.False(t, existing.Active())

	incoming := mustNewDeal(t, 1050, 7)
	seenAt := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	existing.Observe(incoming, seenAt)

	assert.True(t, existing.Active(), "re-observed deal must reactivate")
	assert.Equal(t, 1050.0, existing.TotalPrice())
	assert.Equal(t, 150.0, existing.PricePerNight())
	assert.Equal(t, firstSeen, existing.FirstSeen(), "first seen never moves")
	assert.Equal(t, seenAt, existing.LastSeen())
}

func TestObserve_KeepsImageWhenIncomingHasNone(t *testing.T) {
	existing, err := NewDeal("Carnival", "Splendor", "", "Sydney",
		time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC), 7, 999,
		"Interior", "", "", "https://example.com/ship.jpg", time.Now().UTC())
	require.NoError(t, err)

	incoming := mustNewDeal(t, 999, 7)
	existing.Observe(incoming, time.Now().UTC())
	assert.Equal(t, "https://example.com/ship.jpg", existing.ImageURL())
}

func TestIsGoodDeal(t *testing.T) {
	d := mustNewDeal(t, 700, 7) // 100/night
	assert.True(t, d.IsGoodDeal(150))
	assert.False(t, d.IsGoodDeal(100), "threshold is exclusive")
}
