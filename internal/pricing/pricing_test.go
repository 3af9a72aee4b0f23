package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggestAppliesGradeFactor(t *testing.T) {
	svc := NewService("en-US")

	price, err := svc.Suggest(100, "A")
	require.NoError(t, err)
	require.InDelta(t, 100.0, price, 0.001)

	price, err = svc.Suggest(100, "B")
	require.NoError(t, err)
	require.InDelta(t, 85.0, price, 0.001)

	price, err = svc.Suggest(99.99, "C")
	require.NoError(t, err)
	require.InDelta(t, 69.99, price, 0.001)

	price, err = svc.Suggest(80, "D")
	require.NoError(t, err)
	require.InDelta(t, 40.0, price, 0.001)
}

func TestSuggestRejectsBadInput(t *testing.T) {
	svc := NewService("en-US")

	_, err := svc.Suggest(100, "E")
	require.ErrorIs(t, err, ErrUnknownGrade)

	_, err = svc.Suggest(-1, "A")
	require.Error(t, err)
}

func TestNewServiceFallsBackOnBadLocale(t *testing.T) {
	svc := NewService("not a locale")
	require.Equal(t, "$12.50", svc.Format(12.5))
}
