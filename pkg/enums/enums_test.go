package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses() {
		parsed, err := ParseOrderStatus(status.String())
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}
	_, err := ParseOrderStatus("in process")
	assert.Error(t, err)
	assert.False(t, OrderStatus("").IsValid())
}

func TestLineStatusFollowsOrderStatuses(t *testing.T) {
	assert.True(t, LineStatusPending.IsValid())
	for _, status := range OrderStatuses() {
		assert.True(t, LineStatusFromOrder(status).IsValid(), status)
	}
	_, err := ParseLineStatus("Unknown")
	assert.Error(t, err)
	parsed, err := ParseLineStatus("Entregado")
	require.NoError(t, err)
	assert.Equal(t, LineStatusFromOrder(OrderStatusDelivered), parsed)
}

func TestDispatchTypeRequiresAddress(t *testing.T) {
	assert.True(t, DispatchTypeHomeDelivery.RequiresAddress())
	assert.False(t, DispatchTypePlantPickup.RequiresAddress())
	assert.False(t, DispatchTypeFleet.RequiresAddress())

	parsed, err := ParseDispatchType("RECOGER EN PLANTA")
	require.NoError(t, err)
	assert.Equal(t, DispatchTypePlantPickup, parsed)
	_, err = ParseDispatchType("domicilio")
	assert.Error(t, err)
}

func TestIdentificationTypes(t *testing.T) {
	assert.Len(t, IdentificationTypes(), 3)
	for _, kind := range IdentificationTypes() {
		assert.True(t, kind.IsValid())
	}
	_, err := ParseIdentificationType("passport")
	assert.Error(t, err)
}

func TestListHelpersReturnCopies(t *testing.T) {
	statuses := OrderStatuses()
	statuses[0] = "mutated"
	assert.Equal(t, OrderStatusInProcess, OrderStatuses()[0])
}
