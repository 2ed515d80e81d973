// Package memory implementa los puertos de persistencia sobre estructuras en
// memoria, con semántica transaccional por snapshot/restore. Respalda los
// tests del motor sin PostgreSQL.
package memory

import (
	"sync"

	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// Store es el estado compartido de los adaptadores en memoria.
// txMu serializa transacciones (escritor único global, que subsume el
// escritor único por cotización); mu protege el acceso a los datos.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	products     map[string]*entity.Product
	movements    []*entity.Movement
	reservations map[string]*entity.Reservation
	resOrder     []string
	lots         map[string]*entity.Lot
	lotOrder     []string
	calendar     map[string]*entity.CalendarApplication
	calOrder     []string
	quotations   map[string]*entity.Quotation
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		products:     make(map[string]*entity.Product),
		reservations: make(map[string]*entity.Reservation),
		lots:         make(map[string]*entity.Lot),
		calendar:     make(map[string]*entity.CalendarApplication),
		quotations:   make(map[string]*entity.Quotation),
	}
}

// snapshot copia profunda del estado, para rollback de transacción.
type snapshot struct {
	products     map[string]*entity.Product
	movements    []*entity.Movement
	reservations map[string]*entity.Reservation
	resOrder     []string
	lots         map[string]*entity.Lot
	lotOrder     []string
	calendar     map[string]*entity.CalendarApplication
	calOrder     []string
	quotations   map[string]*entity.Quotation
}

func (s *Store) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &snapshot{
		products:     make(map[string]*entity.Product, len(s.products)),
		movements:    append([]*entity.Movement(nil), s.movements...),
		reservations: make(map[string]*entity.Reservation, len(s.reservations)),
		resOrder:     append([]string(nil), s.resOrder...),
		lots:         make(map[string]*entity.Lot, len(s.lots)),
		lotOrder:     append([]string(nil), s.lotOrder...),
		calendar:     make(map[string]*entity.CalendarApplication, len(s.calendar)),
		calOrder:     append([]string(nil), s.calOrder...),
		quotations:   make(map[string]*entity.Quotation, len(s.quotations)),
	}
	for id, p := range s.products {
		snap.products[id] = cloneProduct(p)
	}
	for id, r := range s.reservations {
		snap.reservations[id] = cloneReservation(r)
	}
	for id, l := range s.lots {
		snap.lots[id] = cloneLot(l)
	}
	for id, a := range s.calendar {
		snap.calendar[id] = cloneApplication(a)
	}
	for id, q := range s.quotations {
		c := *q
		snap.quotations[id] = &c
	}
	return snap
}

func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.movements = snap.movements
	s.reservations = snap.reservations
	s.resOrder = snap.resOrder
	s.lots = snap.lots
	s.lotOrder = snap.lotOrder
	s.calendar = snap.calendar
	s.calOrder = snap.calOrder
	s.quotations = snap.quotations
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func cloneReservation(r *entity.Reservation) *entity.Reservation {
	c := *r
	if r.ReleasedAt != nil {
		t := *r.ReleasedAt
		c.ReleasedAt = &t
	}
	return &c
}

func cloneLot(l *entity.Lot) *entity.Lot {
	c := *l
	return &c
}

func cloneApplication(a *entity.CalendarApplication) *entity.CalendarApplication {
	c := *a
	c.Assignments = append([]entity.LotAssignment(nil), a.Assignments...)
	return &c
}

func cloneMovement(m *entity.Movement) *entity.Movement {
	c := *m
	return &c
}
