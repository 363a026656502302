package entity_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func TestNewRoute_DerivaClase(t *testing.T) {
	entry, err := entity.NewRoute("", "w-2")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementKindEntry, entry.Kind())
	assert.True(t, entry.Deposits())
	assert.False(t, entry.Withdraws())
	assert.Equal(t, []string{"w-2"}, entry.Warehouses())

	exit, err := entity.ExitFrom("w-1")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementKindExit, exit.Kind())
	assert.True(t, exit.Withdraws())
	assert.False(t, exit.Deposits())

	leg, err := entity.NewTransferLeg("w-1", "w-2")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementKindTransferLeg, leg.Kind())
	assert.True(t, leg.Withdraws())
	assert.True(t, leg.Deposits())
	assert.Equal(t, []string{"w-1", "w-2"}, leg.Warehouses())
}

func TestNewRoute_SinBodegas(t *testing.T) {
	r, err := entity.NewRoute("", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	assert.True(t, r.IsZero())
}

func TestNewRoute_MismaBodega(t *testing.T) {
	_, err := entity.NewRoute("w-1", "w-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestNewTransferLeg_RequiereAmbas(t *testing.T) {
	_, err := entity.NewTransferLeg("w-1", "")
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestValidQuantity(t *testing.T) {
	assert.True(t, entity.ValidQuantity(decimal.NewFromInt(1)))
	assert.True(t, entity.ValidQuantity(decimal.RequireFromString("0.0001")))
	assert.False(t, entity.ValidQuantity(decimal.Zero))
	assert.False(t, entity.ValidQuantity(decimal.NewFromInt(-3)))
	assert.False(t, entity.ValidQuantity(decimal.RequireFromString("1.00001")))
	assert.True(t, entity.ValidQuantity(decimal.RequireFromString("99999999999999.9999")))
	assert.False(t, entity.ValidQuantity(decimal.RequireFromString("100000000000000")))
	assert.True(t, entity.QuantityFits(decimal.NewFromInt(-5)))
}

func TestSignedQuantityAt(t *testing.T) {
	leg, err := entity.NewTransferLeg("w-1", "w-2")
	require.NoError(t, err)
	m := &entity.Movement{Route: leg, Quantity: decimal.NewFromInt(4)}

	assert.Equal(t, "-4", m.SignedQuantityAt("w-1").String())
	assert.Equal(t, "4", m.SignedQuantityAt("w-2").String())
	assert.True(t, m.SignedQuantityAt("w-3").IsZero())
	assert.True(t, m.SignedQuantityAt("").IsZero())
}

func TestValidDocumentKind(t *testing.T) {
	assert.True(t, entity.ValidDocumentKind(""))
	assert.True(t, entity.ValidDocumentKind(entity.DocumentKindSalesOrder))
	assert.False(t, entity.ValidDocumentKind("FACTURA"))
}

func TestStockLevel_Covers(t *testing.T) {
	l := entity.NewStockLevel("p-1", "w-1")
	assert.True(t, l.Covers(decimal.Zero))
	l.Quantity = decimal.NewFromInt(10)
	assert.True(t, l.Covers(decimal.NewFromInt(10)))
	assert.False(t, l.Covers(decimal.NewFromInt(11)))
}
