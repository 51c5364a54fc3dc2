package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemWarningsService_AddAndList(t *testing.T) {
	svc := NewSystemWarningsService()

	id := svc.Add(WarningCategoryRefresh, "traffic", "Traffic refresh failed", "maps: REQUEST_DENIED")
	assert.NotEmpty(t, id)

	warnings := svc.List()
	require.Len(t, warnings, 1)
	assert.Equal(t, WarningCategoryRefresh, warnings[0].Category)
	assert.Equal(t, "traffic", warnings[0].Source)
	assert.Equal(t, "Traffic refresh failed", warnings[0].Message)
	assert.Equal(t, "maps: REQUEST_DENIED", warnings[0].Details)
	assert.False(t, warnings[0].CreatedAt.IsZero())
}

func TestSystemWarningsService_Clear(t *testing.T) {
	svc := NewSystemWarningsService()

	svc.Add(WarningCategoryRefresh, "traffic", "failed", "")
	svc.Add(WarningCategoryRefresh, "rail", "failed", "")
	assert.Len(t, svc.List(), 2)

	assert.True(t, svc.Clear(WarningCategoryRefresh, "traffic"))
	require.Len(t, svc.List(), 1)
	assert.Equal(t, "rail", svc.List()[0].Source)

	assert.False(t, svc.Clear(WarningCategoryRefresh, "nonexistent"))
}

func TestSystemWarningsService_ReplacesDuplicate(t *testing.T) {
	svc := NewSystemWarningsService()

	svc.Add(WarningCategoryMessaging, "email", "First error", "err1")
	svc.Add(WarningCategoryMessaging, "email", "Second error", "err2")

	warnings := svc.List()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Second error", warnings[0].Message)
	assert.Equal(t, "err2", warnings[0].Details)
}

func TestSystemWarningsService_ListReturnsCopies(t *testing.T) {
	svc := NewSystemWarningsService()
	svc.Add(WarningCategoryAutoClose, "ticket-1", "close failed", "")

	svc.List()[0].Message = "mutated"
	assert.Equal(t, "close failed", svc.List()[0].Message)
}

func TestSystemWarningsService_ConcurrentAccess(t *testing.T) {
	svc := NewSystemWarningsService()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.Add(WarningCategoryRefresh, "flights", "failed", "")
		}()
		go func() {
			defer wg.Done()
			_ = svc.List()
			svc.Clear(WarningCategoryRefresh, "flights")
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, len(svc.List()), 1)
}
