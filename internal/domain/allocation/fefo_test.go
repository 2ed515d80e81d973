package allocation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/allocation"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

var baseDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func lot(code string, remaining string, expiryDays int) *entity.Lot {
	return &entity.Lot{
		ID:        "lot-" + code,
		ProductID: "p1",
		Code:      code,
		Expiry:    baseDate.AddDate(0, 0, expiryDays),
		Remaining: d(remaining),
	}
}

func TestCandidates(t *testing.T) {
	lots := []*entity.Lot{
		lot("C", "100", 90),
		lot("A", "100", 30),
		lot("B", "100", 30),
		lot("vencido", "100", -1),
		lot("agotado", "0", 90),
	}
	got := allocation.Candidates(lots, baseDate)
	require.Len(t, got, 3, "excluye vencidos y agotados")
	// Orden FEFO con desempate por código
	assert.Equal(t, "A", got[0].Code)
	assert.Equal(t, "B", got[1].Code)
	assert.Equal(t, "C", got[2].Code)
}

func TestCandidatesExpiryEstricto(t *testing.T) {
	// Un lote que vence exactamente en la fecha programada no es elegible
	lots := []*entity.Lot{lot("X", "100", 0)}
	assert.Empty(t, allocation.Candidates(lots, baseDate))
}

func TestSingleLot(t *testing.T) {
	lots := []*entity.Lot{
		lot("A", "100", 10),
		lot("B", "400", 60),
	}
	asg, err := allocation.SingleLot(lots, d("300"), baseDate)
	require.NoError(t, err)
	require.Len(t, asg, 1)
	// A vence antes pero no alcanza; B es el primer candidato suficiente
	assert.Equal(t, "B", asg[0].LotCode)
	assert.Equal(t, "300", asg[0].Quantity.String())

	// Propiedad FEFO: ningún lote elegible con vencimiento anterior al
	// asignado tenía restante suficiente
	for _, l := range allocation.Candidates(lots, baseDate) {
		if l.Expiry.Before(lot("B", "0", 60).Expiry) {
			assert.True(t, l.Remaining.LessThan(d("300")))
		}
	}
}

func TestSingleLotErrores(t *testing.T) {
	_, err := allocation.SingleLot(nil, d("100"), baseDate)
	assert.ErrorIs(t, err, domain.ErrNoLotsAvailable)

	lots := []*entity.Lot{lot("A", "50", 30)}
	_, err = allocation.SingleLot(lots, d("100"), baseDate)
	assert.ErrorIs(t, err, domain.ErrNoSingleLotSufficient)

	_, err = allocation.SingleLot(lots, d("0"), baseDate)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestMultiLot(t *testing.T) {
	lots := []*entity.Lot{
		lot("B", "200", 60),
		lot("A", "300", 10),
	}
	asg, err := allocation.MultiLot(lots, d("400"), baseDate)
	require.NoError(t, err)
	require.Len(t, asg, 2)
	// A completo (vence primero), B aporta el residuo
	assert.Equal(t, "A", asg[0].LotCode)
	assert.Equal(t, "300", asg[0].Quantity.String())
	assert.Equal(t, "B", asg[1].LotCode)
	assert.Equal(t, "100", asg[1].Quantity.String())

	// La suma asignada es exactamente lo requerido
	total := decimal.Zero
	for _, a := range asg {
		total = total.Add(a.Quantity)
	}
	assert.Equal(t, "400", total.String())
}

func TestMultiLotCapacidadInsuficiente(t *testing.T) {
	// Escenario: A(300) vence en 10 días, B(400) en 60; la aplicación es en
	// 30 días y necesita 500. A queda excluido y B solo tiene 400.
	scheduled := baseDate.AddDate(0, 0, 30)
	lots := []*entity.Lot{
		lot("A", "300", 10),
		lot("B", "400", 60),
	}

	_, err := allocation.SingleLot(lots, d("500"), scheduled)
	require.ErrorIs(t, err, domain.ErrNoSingleLotSufficient)

	_, err = allocation.MultiLot(lots, d("500"), scheduled)
	var capErr *domain.InsufficientLotCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "100", capErr.Shortfall.String())
	assert.Equal(t, "400", capErr.Capacity.String())
}

func TestValid(t *testing.T) {
	lots := []*entity.Lot{
		lot("A", "300", 10),
		lot("B", "400", 60),
	}
	asg := []entity.LotAssignment{{LotCode: "A", Quantity: d("200")}}

	assert.True(t, allocation.Valid(lots, asg, d("200"), baseDate))
	// Para una fecha posterior al vencimiento de A deja de ser válida
	assert.False(t, allocation.Valid(lots, asg, d("200"), baseDate.AddDate(0, 0, 30)))
	// Sin asignación previa nunca es válida
	assert.False(t, allocation.Valid(lots, nil, d("200"), baseDate))
	// El total asignado debe cubrir lo requerido
	assert.False(t, allocation.Valid(lots, asg, d("250"), baseDate))
}

func TestManual(t *testing.T) {
	lots := []*entity.Lot{
		lot("A", "300", 10),
		lot("B", "400", 60),
	}

	// Selección válida sin advertencia
	warning, err := allocation.Manual(lots, []entity.LotAssignment{
		{LotCode: "B", Quantity: d("400")},
	}, d("400"), baseDate)
	require.NoError(t, err)
	assert.False(t, warning)

	// Lote vencido a la fecha: chequeo duro degradado a advertencia
	scheduled := baseDate.AddDate(0, 0, 30)
	warning, err = allocation.Manual(lots, []entity.LotAssignment{
		{LotCode: "A", Quantity: d("100")},
		{LotCode: "B", Quantity: d("300")},
	}, d("400"), scheduled)
	require.NoError(t, err)
	assert.True(t, warning, "el vencimiento anterior a la fecha advierte, no bloquea")

	// Cantidad mayor al restante del lote: sigue siendo chequeo duro
	_, err = allocation.Manual(lots, []entity.LotAssignment{
		{LotCode: "A", Quantity: d("500")},
	}, d("500"), baseDate)
	var capErr *domain.InsufficientLotCapacityError
	require.ErrorAs(t, err, &capErr)

	// La suma debe igualar lo requerido
	_, err = allocation.Manual(lots, []entity.LotAssignment{
		{LotCode: "B", Quantity: d("100")},
	}, d("400"), baseDate)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// Lote inexistente
	_, err = allocation.Manual(lots, []entity.LotAssignment{
		{LotCode: "Z", Quantity: d("100")},
	}, d("100"), baseDate)
	assert.ErrorIs(t, err, domain.ErrLotNotFound)
}
