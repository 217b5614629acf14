package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/config"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
	pkgerrors "github.com/thekingleo527/FrancoSphere-sub016/pkg/errors"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/events"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/migrate"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/pagination"
)

type ledgerFixture struct {
	svc    *Service
	client *db.Client
	bus    *events.Broadcaster
	worker *models.Worker
}

func newLedgerFixture(t *testing.T, policy string) *ledgerFixture {
	t.Helper()
	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	client := db.NewWithConn(conn)
	require.NoError(t, migrate.EnsureSchema(context.Background(), client, nil))

	bus := events.NewBroadcaster(16, nil, nil)
	t.Cleanup(bus.Close)

	svc, err := NewService(ServiceParams{
		Client: client,
		Repo:   NewRepository(conn),
		Config: config.InventoryConfig{NegativeStockPolicy: policy},
		Bus:    bus,
	})
	require.NoError(t, err)

	worker := &models.Worker{
		Name:         "Edwin Lema",
		Email:        uuid.NewString() + "@francosphere.local",
		PasswordHash: "x",
		Role:         enums.WorkerRoleWorker,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(worker).Error)

	return &ledgerFixture{svc: svc, client: client, bus: bus, worker: worker}
}

func (f *ledgerFixture) seedItem(t *testing.T, stock, minimum int, unitCost string) *models.InventoryItem {
	t.Helper()
	building := &models.Building{Name: "131 Perry Street", Address: "131 Perry St, New York"}
	require.NoError(t, f.client.DB().Create(building).Error)

	cost, err := decimal.NewFromString(unitCost)
	require.NoError(t, err)
	item := &models.InventoryItem{
		BuildingID:   building.ID,
		Name:         "Glass Cleaner",
		Category:     "cleaning",
		CurrentStock: stock,
		MinimumStock: minimum,
		MaximumStock: 100,
		Unit:         "bottle",
		UnitCost:     cost,
		Status:       enums.StatusForStock(stock, minimum),
		IsActive:     true,
	}
	require.NoError(t, f.client.DB().Create(item).Error)
	return item
}

func (f *ledgerFixture) record(t *testing.T, input RecordTransactionInput) *TransactionResult {
	t.Helper()
	result, err := f.svc.RecordTransaction(context.Background(), input)
	require.NoError(t, err)
	return result
}

func TestRecordUseTransaction(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	item := f.seedItem(t, 10, 3, "4.50")

	result := f.record(t, RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeUse,
		Quantity: 4,
	})

	assert.Equal(t, 10, result.Transaction.StockBefore)
	assert.Equal(t, 6, result.Transaction.StockAfter)
	assert.True(t, result.Transaction.TotalCost.Equal(decimal.RequireFromString("18.00")), "got %s", result.Transaction.TotalCost)
	assert.Equal(t, enums.ItemStatusInStock, result.Item.Status)
	assert.Nil(t, result.Alert)

	var reloaded models.InventoryItem
	require.NoError(t, f.client.DB().First(&reloaded, "id = ?", item.ID).Error)
	assert.Equal(t, 6, reloaded.CurrentStock)
}

func TestRestockBelowMinimumDoesNotAlert(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	item := f.seedItem(t, 2, 5, "1.00")

	result := f.record(t, RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeRestock,
		Quantity: 10,
	})

	assert.Equal(t, 12, result.Item.CurrentStock)
	assert.Equal(t, enums.ItemStatusInStock, result.Item.Status)
	assert.Nil(t, result.Alert)
	assert.NotNil(t, result.Item.LastRestockedAt)

	var count int64
	require.NoError(t, f.client.DB().Model(&models.InventoryAlert{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAlertOpensOnlyOnCrossing(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	item := f.seedItem(t, 8, 5, "2.00")

	// 8 -> 4 crosses the minimum of 5
	result := f.record(t, RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeUse,
		Quantity: 4,
	})
	require.NotNil(t, result.Alert)
	assert.Equal(t, enums.AlertTypeLowStock, result.Alert.AlertType)
	assert.Equal(t, 5, result.Alert.ThresholdValue)
	assert.Equal(t, 4, result.Alert.CurrentValue)

	// 4 -> 3 stays below the minimum; no second alert
	result = f.record(t, RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeUse,
		Quantity: 1,
	})
	assert.Nil(t, result.Alert)

	var count int64
	require.NoError(t, f.client.DB().Model(&models.InventoryAlert{}).Where("item_id = ?", item.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDepletionOpensOutOfStockAlert(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	item := f.seedItem(t, 6, 5, "2.00")

	result := f.record(t, RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeUse,
		Quantity: 6,
	})
	require.NotNil(t, result.Alert)
	assert.Equal(t, enums.AlertTypeOutOfStock, result.Alert.AlertType)
	assert.Equal(t, enums.ItemStatusOutOfStock, result.Item.Status)
}

func TestRejectPolicyBlocksOverdraw(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	item := f.seedItem(t, 3, 1, "2.00")

	_, err := f.svc.RecordTransaction(context.Background(), RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeUse,
		Quantity: 5,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	// the rejected movement leaves no trace
	var count int64
	require.NoError(t, f.client.DB().Model(&models.InventoryTransaction{}).Count(&count).Error)
	assert.Zero(t, count)

	var reloaded models.InventoryItem
	require.NoError(t, f.client.DB().First(&reloaded, "id = ?", item.ID).Error)
	assert.Equal(t, 3, reloaded.CurrentStock)
}

func TestClampPolicyFloorsAtZero(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockClamp)
	item := f.seedItem(t, 3, 1, "2.00")

	result := f.record(t, RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeUse,
		Quantity: 5,
	})
	assert.True(t, result.Clamped)
	assert.Equal(t, 3, result.Transaction.StockBefore)
	assert.Equal(t, 0, result.Transaction.StockAfter)
	// cost reflects the units actually moved, not the requested count
	assert.True(t, result.Transaction.TotalCost.Equal(decimal.RequireFromString("6.00")))
	assert.Equal(t, enums.ItemStatusOutOfStock, result.Item.Status)
}

func TestAdjustCarriesSign(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	item := f.seedItem(t, 10, 2, "1.00")

	result := f.record(t, RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeAdjust,
		Quantity: -3,
	})
	assert.Equal(t, 7, result.Item.CurrentStock)

	result = f.record(t, RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeAdjust,
		Quantity: 2,
	})
	assert.Equal(t, 9, result.Item.CurrentStock)

	_, err := f.svc.RecordTransaction(context.Background(), RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeAdjust,
		Quantity: 0,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUnknownItemRejected(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)

	_, err := f.svc.RecordTransaction(context.Background(), RecordTransactionInput{
		ItemID:   uuid.NewString(),
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeUse,
		Quantity: 1,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestLedgerChainsUnderConcurrentWriters(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	const writers = 10
	item := f.seedItem(t, 50, 1, "1.00")

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordTransaction(context.Background(), RecordTransactionInput{
				ItemID:   item.ID,
				WorkerID: f.worker.ID,
				Type:     enums.TransactionTypeUse,
				Quantity: 2,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var reloaded models.InventoryItem
	require.NoError(t, f.client.DB().First(&reloaded, "id = ?", item.ID).Error)
	assert.Equal(t, 30, reloaded.CurrentStock)

	var entries []models.InventoryTransaction
	require.NoError(t, f.client.DB().
		Where("item_id = ?", item.ID).
		Order("stock_before DESC").
		Find(&entries).Error)
	require.Len(t, entries, writers)
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, entries[i-1].StockAfter, entries[i].StockBefore,
			"entry %d does not chain from its predecessor", i)
	}
}

func TestTransactionPublishesUpdateEvent(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	item := f.seedItem(t, 10, 2, "1.00")

	sub := f.bus.Subscribe()
	defer sub.Close()

	f.record(t, RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeUse,
		Quantity: 1,
	})

	select {
	case event := <-sub.C():
		assert.Equal(t, enums.EventKindInventoryUpdated, event.Kind)
		assert.Equal(t, item.BuildingID, event.BuildingID)
		assert.Equal(t, item.ID, event.Payload["item_id"])
		assert.Equal(t, 9, event.Payload["stock_after"])
	case <-time.After(time.Second):
		t.Fatal("expected an inventory update event")
	}
}

func TestResolveAlert(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	item := f.seedItem(t, 6, 5, "1.00")

	result := f.record(t, RecordTransactionInput{
		ItemID:   item.ID,
		WorkerID: f.worker.ID,
		Type:     enums.TransactionTypeUse,
		Quantity: 2,
	})
	require.NotNil(t, result.Alert)

	open, err := f.svc.OpenAlerts(context.Background(), item.BuildingID)
	require.NoError(t, err)
	require.Len(t, open, 1)

	require.NoError(t, f.svc.ResolveAlert(context.Background(), result.Alert.ID, f.worker.ID))
	// retried resolution stays a no-op
	require.NoError(t, f.svc.ResolveAlert(context.Background(), result.Alert.ID, f.worker.ID))

	open, err = f.svc.OpenAlerts(context.Background(), item.BuildingID)
	require.NoError(t, err)
	assert.Empty(t, open)

	var alert models.InventoryAlert
	require.NoError(t, f.client.DB().First(&alert, "id = ?", result.Alert.ID).Error)
	assert.True(t, alert.IsResolved)
	require.NotNil(t, alert.ResolvedBy)
	assert.Equal(t, f.worker.ID, *alert.ResolvedBy)
	assert.NotNil(t, alert.ResolvedAt)

	err = f.svc.ResolveAlert(context.Background(), uuid.NewString(), f.worker.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestLowStockReportOrdering(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	building := &models.Building{Name: "Rubin Museum", Address: "150 W 17th St, New York"}
	require.NoError(t, f.client.DB().Create(building).Error)

	seed := func(name string, stock, minimum int) {
		item := &models.InventoryItem{
			BuildingID:   building.ID,
			Name:         name,
			Category:     "cleaning",
			CurrentStock: stock,
			MinimumStock: minimum,
			UnitCost:     decimal.Zero,
			Status:       enums.StatusForStock(stock, minimum),
			IsActive:     true,
		}
		require.NoError(t, f.client.DB().Create(item).Error)
	}
	seed("Paper Towels", 4, 8)  // ratio 0.5
	seed("Trash Bags", 0, 10)   // ratio 0, most urgent
	seed("Mop Heads", 3, 4)     // ratio 0.75
	seed("Soap", 20, 5)         // in stock, excluded

	rows, err := f.svc.LowStockReport(context.Background(), building.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Trash Bags", rows[0].Name)
	assert.Equal(t, enums.ItemStatusOutOfStock, rows[0].Status)
	assert.Equal(t, "Paper Towels", rows[1].Name)
	assert.Equal(t, "Mop Heads", rows[2].Name)
}

func TestInventoryValue(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	item := f.seedItem(t, 10, 2, "4.25")

	total, err := f.svc.InventoryValue(context.Background(), item.BuildingID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("42.50")), "got %s", total)

	_, err = f.svc.InventoryValue(context.Background(), "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPortfolioValueGroupsByBuilding(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	first := f.seedItem(t, 10, 2, "4.25")
	second := f.seedItem(t, 3, 1, "2.00")

	rows, err := f.svc.PortfolioValue(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byBuilding := make(map[string]ValueRow, len(rows))
	for _, row := range rows {
		byBuilding[row.BuildingID] = row
	}
	assert.True(t, byBuilding[first.BuildingID].TotalValue.Equal(decimal.RequireFromString("42.50")))
	assert.True(t, byBuilding[second.BuildingID].TotalValue.Equal(decimal.RequireFromString("6.00")))
	assert.Equal(t, 1, byBuilding[first.BuildingID].ItemCount)
}

func TestItemHistoryNewestFirst(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	item := f.seedItem(t, 20, 2, "1.00")

	for i := 0; i < 3; i++ {
		f.record(t, RecordTransactionInput{
			ItemID:   item.ID,
			WorkerID: f.worker.ID,
			Type:     enums.TransactionTypeUse,
			Quantity: 1,
		})
	}

	entries, err := f.svc.ItemHistory(context.Background(), item.ID, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 18, entries[0].StockBefore)
	assert.Equal(t, 19, entries[1].StockBefore)
}

func TestItemHistoryPagination(t *testing.T) {
	f := newLedgerFixture(t, config.NegativeStockReject)
	item := f.seedItem(t, 50, 2, "1.00")

	for i := 0; i < 7; i++ {
		f.record(t, RecordTransactionInput{
			ItemID:   item.ID,
			WorkerID: f.worker.ID,
			Type:     enums.TransactionTypeUse,
			Quantity: 1,
		})
	}

	page, err := f.svc.ItemHistoryPage(context.Background(), item.ID, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	require.NotEmpty(t, page.NextCursor)
	assert.Equal(t, 44, page.Entries[0].StockBefore)

	seen := make(map[string]bool)
	for _, entry := range page.Entries {
		seen[entry.ID] = true
	}

	page, err = f.svc.ItemHistoryPage(context.Background(), item.ID, pagination.Params{
		Limit:  3,
		Cursor: page.NextCursor,
	})
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	for _, entry := range page.Entries {
		assert.False(t, seen[entry.ID], "entry repeated across pages")
		seen[entry.ID] = true
	}

	// final partial page carries no cursor
	page, err = f.svc.ItemHistoryPage(context.Background(), item.ID, pagination.Params{
		Limit:  3,
		Cursor: page.NextCursor,
	})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Empty(t, page.NextCursor)

	_, err = f.svc.ItemHistoryPage(context.Background(), item.ID, pagination.Params{Cursor: "garbage!"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
