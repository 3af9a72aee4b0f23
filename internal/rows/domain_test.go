package rows

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyFallsBackToNumericID(t *testing.T) {
	require.Equal(t, "LAP-0001", InventoryRow{ID: 9, SynergyID: "LAP-0001"}.Key())
	require.Equal(t, "9", InventoryRow{ID: 9}.Key())
}

func TestUnmarshalNormalizesSnakeCaseEbayFields(t *testing.T) {
	var row InventoryRow
	err := json.Unmarshal([]byte(`{
		"id": 1,
		"synergyId": "LAP-0001",
		"status": "POSTED",
		"ebay_item_url": "https://ebay.example/itm/123",
		"ebay_listing_id": "123"
	}`), &row)
	require.NoError(t, err)
	require.Equal(t, "https://ebay.example/itm/123", row.EbayItemURL)
	require.Equal(t, "123", row.EbayListingID)

	// camelCase wins when both spellings are present
	err = json.Unmarshal([]byte(`{
		"ebayItemUrl": "https://ebay.example/itm/456",
		"ebay_item_url": "https://ebay.example/itm/123"
	}`), &row)
	require.NoError(t, err)
	require.Equal(t, "https://ebay.example/itm/456", row.EbayItemURL)
}

func TestValidSynergyID(t *testing.T) {
	require.True(t, ValidSynergyID("LAP-0001"))
	require.True(t, ValidSynergyID("GPU2-17"))
	require.False(t, ValidSynergyID("LAP0001"))
	require.False(t, ValidSynergyID("LAP-"))
	require.False(t, ValidSynergyID("-17"))
	require.False(t, ValidSynergyID("LAP-17-B"))
}
