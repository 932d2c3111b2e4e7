package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/vendora/storefront/internal/errors"
)

func physicalInput(productID uuid.UUID, price int64, quantity int32) ItemInput {
	return ItemInput{
		ProductID:   productID,
		Title:       "ceramic mug",
		Price:       decimal.NewFromInt(price),
		ProductType: ProductTypePhysical,
		Quantity:    quantity,
	}
}

func appointmentInput(productID uuid.UUID, date, at string) ItemInput {
	return ItemInput{
		ProductID:       productID,
		Title:           "studio session",
		Price:           decimal.NewFromInt(5000),
		ProductType:     ProductTypeAppointment,
		Quantity:        1,
		AppointmentDate: date,
		AppointmentTime: at,
	}
}

func TestTotalMatchesSumOfLines(t *testing.T) {
	ct := Cart{}
	a := ct.Add(physicalInput(uuid.New(), 2000, 3))
	b := ct.Add(physicalInput(uuid.New(), 1500, 1))
	ct.Add(appointmentInput(uuid.New(), "2025-03-01", "10:00"))

	expected := decimal.Zero
	for _, item := range ct.Items {
		expected = expected.Add(item.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	assert.True(t, ct.Total().Equal(expected))
	assert.True(t, ct.Total().Equal(decimal.NewFromInt(2000*3+1500+5000)))

	require.NoError(t, ct.UpdateQuantity(a.ID, 5))
	ct.Remove(b.ID)

	expected = decimal.Zero
	for _, item := range ct.Items {
		expected = expected.Add(item.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	assert.True(t, ct.Total().Equal(expected))
}

func TestAddMergesSameProduct(t *testing.T) {
	productID := uuid.New()
	ct := Cart{}
	ct.Add(physicalInput(productID, 2000, 1))
	ct.Add(physicalInput(productID, 2000, 2))

	require.Len(t, ct.Items, 1)
	assert.Equal(t, int32(3), ct.Items[0].Quantity)
}

func TestAddKeepsDistinctTicketTypes(t *testing.T) {
	productID := uuid.New()
	ct := Cart{}
	ct.Add(ItemInput{
		ProductID:   productID,
		Title:       "conference pass",
		Price:       decimal.NewFromInt(12000),
		ProductType: ProductTypeEvent,
		Quantity:    1,
		TicketType:  "regular",
	})
	ct.Add(ItemInput{
		ProductID:   productID,
		Title:       "conference pass",
		Price:       decimal.NewFromInt(25000),
		ProductType: ProductTypeEvent,
		Quantity:    1,
		TicketType:  "vip",
	})
	ct.Add(ItemInput{
		ProductID:   productID,
		Title:       "conference pass",
		Price:       decimal.NewFromInt(12000),
		ProductType: ProductTypeEvent,
		Quantity:    1,
		TicketType:  "regular",
	})

	require.Len(t, ct.Items, 2)
	assert.Equal(t, int32(2), ct.Items[0].Quantity)
	assert.Equal(t, int32(1), ct.Items[1].Quantity)
}

func TestAddNeverMergesAppointments(t *testing.T) {
	productID := uuid.New()
	ct := Cart{}
	ct.Add(appointmentInput(productID, "2025-03-01", "10:00"))
	ct.Add(appointmentInput(productID, "2025-03-01", "11:00"))
	ct.Add(appointmentInput(productID, "2025-03-01", "10:00"))

	require.Len(t, ct.Items, 3)
	for _, item := range ct.Items {
		assert.Equal(t, int32(1), item.Quantity)
	}
}

func TestUpdateQuantityFloor(t *testing.T) {
	ct := Cart{}
	item := ct.Add(physicalInput(uuid.New(), 2000, 1))

	err := ct.UpdateQuantity(item.ID, 0)
	assert.ErrorIs(t, err, inErrors.ErrInvalidQuantity)
	err = ct.UpdateQuantity(item.ID, -3)
	assert.ErrorIs(t, err, inErrors.ErrInvalidQuantity)

	require.Len(t, ct.Items, 1)
	assert.Equal(t, int32(1), ct.Items[0].Quantity)
}

func TestUpdateQuantityIgnoredForAppointments(t *testing.T) {
	ct := Cart{}
	item := ct.Add(appointmentInput(uuid.New(), "2025-03-01", "10:00"))

	require.NoError(t, ct.UpdateQuantity(item.ID, 4))
	assert.Equal(t, int32(1), ct.Items[0].Quantity)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ct := Cart{}
	ct.Add(physicalInput(uuid.New(), 2000, 2))

	ct.Remove(uuid.New())
	require.Len(t, ct.Items, 1)
	assert.True(t, ct.Total().Equal(decimal.NewFromInt(4000)))
}

func TestItemCountSumsQuantities(t *testing.T) {
	ct := Cart{}
	ct.Add(physicalInput(uuid.New(), 2000, 3))
	ct.Add(physicalInput(uuid.New(), 1500, 2))
	ct.Add(appointmentInput(uuid.New(), "2025-03-01", "10:00"))

	assert.Equal(t, int32(6), ct.ItemCount())
}

func TestClearEmptiesCart(t *testing.T) {
	ct := Cart{}
	ct.Add(physicalInput(uuid.New(), 2000, 3))
	ct.Clear()

	assert.Empty(t, ct.Items)
	assert.True(t, ct.Total().IsZero())
	assert.Equal(t, int32(0), ct.ItemCount())
}

func TestRequiresShipping(t *testing.T) {
	ct := Cart{}
	ct.Add(ItemInput{
		ProductID:   uuid.New(),
		Title:       "ebook",
		Price:       decimal.NewFromInt(1500),
		ProductType: ProductTypeDigital,
		Quantity:    1,
	})
	assert.False(t, ct.RequiresShipping())

	ct.Add(physicalInput(uuid.New(), 2000, 1))
	assert.True(t, ct.RequiresShipping())
}
