package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avalonhealth/hospital-api/models"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(90 * 24 * time.Hour)

	tests := []struct {
		name string
		item models.InventoryItem
		want string
	}{
		{
			name: "healthy stock",
			item: models.InventoryItem{Quantity: 100, ReorderLevel: 20, ExpiryDate: &future},
			want: models.InventoryStatusInStock,
		},
		{
			name: "at reorder level is low stock",
			item: models.InventoryItem{Quantity: 20, ReorderLevel: 20},
			want: models.InventoryStatusLowStock,
		},
		{
			name: "zero quantity is out of stock",
			item: models.InventoryItem{Quantity: 0, ReorderLevel: 20},
			want: models.InventoryStatusOutOfStock,
		},
		{
			name: "expired wins over out of stock",
			item: models.InventoryItem{Quantity: 0, ReorderLevel: 20, ExpiryDate: &past},
			want: models.InventoryStatusExpired,
		},
		{
			name: "expired wins over healthy stock",
			item: models.InventoryItem{Quantity: 100, ReorderLevel: 20, ExpiryDate: &past},
			want: models.InventoryStatusExpired,
		},
		{
			name: "no expiry date never expires",
			item: models.InventoryItem{Quantity: 100, ReorderLevel: 20},
			want: models.InventoryStatusInStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.item.DeriveStatus(now)
			assert.Equal(t, tt.want, tt.item.Status)
		})
	}
}

func TestRebuildAlerts(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("low stock raises one alert", func(t *testing.T) {
		item := models.InventoryItem{Name: "Paracetamol", ItemCode: "MED0001", Quantity: 5, ReorderLevel: 20}
		alerts := item.RebuildAlerts(now)

		if assert.Len(t, alerts, 1) {
			assert.Equal(t, models.AlertTypeLowStock, alerts[0].Type)
		}
	})

	t.Run("out of stock and expired stack", func(t *testing.T) {
		past := now.Add(-48 * time.Hour)
		item := models.InventoryItem{Name: "Insulin", ItemCode: "MED0002", Quantity: 0, ReorderLevel: 10, ExpiryDate: &past}
		alerts := item.RebuildAlerts(now)

		if assert.Len(t, alerts, 2) {
			assert.Equal(t, models.AlertTypeOutOfStock, alerts[0].Type)
			assert.Equal(t, models.AlertTypeExpired, alerts[1].Type)
		}
	})

	t.Run("expiring soon inside the warning window", func(t *testing.T) {
		soon := now.Add(models.ExpiryWarningWindow / 2)
		item := models.InventoryItem{Name: "Saline", ItemCode: "CON0001", Quantity: 100, ReorderLevel: 10, ExpiryDate: &soon}
		alerts := item.RebuildAlerts(now)

		if assert.Len(t, alerts, 1) {
			assert.Equal(t, models.AlertTypeExpiring, alerts[0].Type)
		}
	})

	t.Run("previous alerts are discarded", func(t *testing.T) {
		item := models.InventoryItem{
			Name: "Gauze", ItemCode: "SUP0001", Quantity: 100, ReorderLevel: 10,
			Alerts: []models.InventoryAlert{{Type: models.AlertTypeLowStock, Message: "stale"}},
		}
		alerts := item.RebuildAlerts(now)

		assert.Empty(t, alerts)
		assert.Empty(t, item.Alerts)
	})
}

func TestItemCode(t *testing.T) {
	tests := []struct {
		category string
		seq      int64
		want     string
	}{
		{"Medicine", 1, "MED0001"},
		{"medicine", 42, "MED0042"},
		{"Equipment", 7, "EQP0007"},
		{"Consumable", 12, "CON0012"},
		{"Supplies", 3, "SUP0003"},
		{"Unknown Category", 9, "ITM0009"},
		{"", 5, "ITM0005"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, models.ItemCode(tt.category, tt.seq))
	}
}
