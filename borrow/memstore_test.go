package borrow

// In-memory Store double for the core tests, mirroring what db.Repo does on
// Postgres: Atomically serializes units behind one mutex and rolls the state
// back on error; CreateReservations enforces the same uniqueness backstop as
// the partial index.

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

type memState struct {
	requests     map[string]*models.BorrowRequest
	reservations []models.Reservation
	nextResID    uint
	reqSeq       int
	devices      map[string]*models.Device
	slots        map[string]*models.TimeSlot
	users        map[string]*models.User
	handovers    []models.HandoverRecord
	maintenance  []models.MaintenanceLog
}

func (s *memState) clone() *memState {
	c := &memState{
		requests:     make(map[string]*models.BorrowRequest, len(s.requests)),
		reservations: append([]models.Reservation(nil), s.reservations...),
		nextResID:    s.nextResID,
		reqSeq:       s.reqSeq,
		devices:      make(map[string]*models.Device, len(s.devices)),
		slots:        make(map[string]*models.TimeSlot, len(s.slots)),
		users:        make(map[string]*models.User, len(s.users)),
		handovers:    append([]models.HandoverRecord(nil), s.handovers...),
		maintenance:  append([]models.MaintenanceLog(nil), s.maintenance...),
	}
	for id, r := range s.requests {
		c.requests[id] = copyRequest(r)
	}
	for id, d := range s.devices {
		dd := *d
		c.devices[id] = &dd
	}
	for id, ts := range s.slots {
		tt := *ts
		c.slots[id] = &tt
	}
	for id, u := range s.users {
		uu := *u
		c.users[id] = &uu
	}
	return c
}

func copyRequest(r *models.BorrowRequest) *models.BorrowRequest {
	c := *r
	c.Items = append([]models.BorrowRequestItem(nil), r.Items...)
	return &c
}

type memStore struct {
	mu *sync.Mutex
	st *memState
	tx bool
}

func newMemStore() *memStore {
	return &memStore{
		mu: &sync.Mutex{},
		st: &memState{
			requests: make(map[string]*models.BorrowRequest),
			devices:  make(map[string]*models.Device),
			slots:    make(map[string]*models.TimeSlot),
			users:    make(map[string]*models.User),
		},
	}
}

// enter takes the store lock unless already inside Atomically.
func (m *memStore) enter() func() {
	if m.tx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) Atomically(_ context.Context, fn func(tx Store) error) error {
	if m.tx {
		return fn(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.st.clone()
	if err := fn(&memStore{mu: m.mu, st: m.st, tx: true}); err != nil {
		m.st = snap
		return err
	}
	return nil
}

var memEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func (m *memStore) CreateRequest(_ context.Context, req *models.BorrowRequest) error {
	defer m.enter()()
	cp := copyRequest(req)
	m.st.reqSeq++
	cp.CreatedAt = memEpoch.Add(time.Duration(m.st.reqSeq) * time.Second)
	m.st.requests[req.ID] = cp
	return nil
}

func (m *memStore) FindRequestByID(_ context.Context, id string) (*models.BorrowRequest, error) {
	defer m.enter()()
	r, ok := m.st.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return copyRequest(r), nil
}

func (m *memStore) LockRequestByID(ctx context.Context, id string) (*models.BorrowRequest, error) {
	return m.FindRequestByID(ctx, id)
}

func (m *memStore) SaveRequest(_ context.Context, req *models.BorrowRequest) error {
	defer m.enter()()
	if _, ok := m.st.requests[req.ID]; !ok {
		return ErrRequestNotFound
	}
	m.st.requests[req.ID] = copyRequest(req)
	return nil
}

func (m *memStore) ListRequests(_ context.Context, f RequestFilter) ([]models.BorrowRequest, error) {
	defer m.enter()()
	var out []models.BorrowRequest
	for _, r := range m.st.requests {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Date != nil && !r.BorrowDate.Equal(*f.Date) {
			continue
		}
		if f.RequesterID != "" && r.RequesterID != f.RequesterID {
			continue
		}
		out = append(out, *copyRequest(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	page, size := f.Page, f.Size
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	lo := (page - 1) * size
	if lo >= len(out) {
		return nil, nil
	}
	hi := lo + size
	if hi > len(out) {
		hi = len(out)
	}
	return out[lo:hi], nil
}

func (m *memStore) ActiveReservations(_ context.Context, deviceIDs []string, date time.Time, timeSlotID, excludeRequestID string) ([]Conflict, error) {
	defer m.enter()()
	wanted := make(map[string]bool, len(deviceIDs))
	for _, id := range deviceIDs {
		wanted[id] = true
	}
	var out []Conflict
	for _, res := range m.st.reservations {
		if res.ReleasedAt != nil || !wanted[res.DeviceID] {
			continue
		}
		if !res.BorrowDate.Equal(date) || res.TimeSlotID != timeSlotID {
			continue
		}
		if excludeRequestID != "" && res.RequestID == excludeRequestID {
			continue
		}
		owner, ok := m.st.requests[res.RequestID]
		if !ok || !owner.Status.Active() {
			continue
		}
		cf := Conflict{
			DeviceID:   res.DeviceID,
			RequestID:  res.RequestID,
			BorrowerID: owner.RequesterID,
			Purpose:    owner.Purpose,
		}
		if d, ok := m.st.devices[res.DeviceID]; ok {
			cf.DeviceName = d.Name
			cf.DeviceCode = d.Code
		}
		if u, ok := m.st.users[owner.RequesterID]; ok {
			cf.BorrowerName = u.DisplayName
		}
		out = append(out, cf)
	}
	return out, nil
}

func (m *memStore) CreateReservations(_ context.Context, rs []models.Reservation) error {
	defer m.enter()()
	for _, nr := range rs {
		for _, old := range m.st.reservations {
			if old.ReleasedAt == nil &&
				old.DeviceID == nr.DeviceID &&
				old.BorrowDate.Equal(nr.BorrowDate) &&
				old.TimeSlotID == nr.TimeSlotID {
				return ErrReservationTaken
			}
		}
	}
	for _, nr := range rs {
		m.st.nextResID++
		nr.ID = m.st.nextResID
		m.st.reservations = append(m.st.reservations, nr)
	}
	return nil
}

func (m *memStore) ReleaseReservations(_ context.Context, requestID string) error {
	defer m.enter()()
	kept := m.st.reservations[:0]
	for _, r := range m.st.reservations {
		if r.RequestID != requestID {
			kept = append(kept, r)
		}
	}
	m.st.reservations = kept
	return nil
}

func (m *memStore) MarkReservationsReleased(_ context.Context, requestID string, at time.Time) error {
	defer m.enter()()
	for i := range m.st.reservations {
		if m.st.reservations[i].RequestID == requestID && m.st.reservations[i].ReleasedAt == nil {
			t := at
			m.st.reservations[i].ReleasedAt = &t
		}
	}
	return nil
}

func (m *memStore) ListReservationsByRequest(_ context.Context, requestID string) ([]models.Reservation, error) {
	defer m.enter()()
	var out []models.Reservation
	for _, r := range m.st.reservations {
		if r.RequestID == requestID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) FindDevicesByIDs(_ context.Context, ids []string) ([]models.Device, error) {
	defer m.enter()()
	var out []models.Device
	for _, id := range ids {
		if d, ok := m.st.devices[id]; ok {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memStore) UpdateDeviceStatus(_ context.Context, deviceID string, status models.DeviceStatus) error {
	defer m.enter()()
	d, ok := m.st.devices[deviceID]
	if !ok {
		return ErrDeviceNotFound
	}
	d.Status = status
	return nil
}

func (m *memStore) FindTimeSlotByID(_ context.Context, id string) (*models.TimeSlot, error) {
	defer m.enter()()
	ts, ok := m.st.slots[id]
	if !ok {
		return nil, ErrTimeSlotNotFound
	}
	tt := *ts
	return &tt, nil
}

func (m *memStore) CreateHandover(_ context.Context, rec *models.HandoverRecord) error {
	defer m.enter()()
	cp := *rec
	cp.Items = append([]models.HandoverItem(nil), rec.Items...)
	m.st.handovers = append(m.st.handovers, cp)
	return nil
}

func (m *memStore) ListHandoversByRequest(_ context.Context, requestID string) ([]models.HandoverRecord, error) {
	defer m.enter()()
	var out []models.HandoverRecord
	for _, h := range m.st.handovers {
		if h.RequestID == requestID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStore) CreateMaintenanceLog(_ context.Context, ml *models.MaintenanceLog) error {
	defer m.enter()()
	m.st.maintenance = append(m.st.maintenance, *ml)
	return nil
}

// --- seed helpers ---

func (m *memStore) seedDevice(id, code, name string) {
	m.st.devices[id] = &models.Device{ID: id, Code: code, Name: name, Status: models.DeviceAvailable}
}

func (m *memStore) seedSlot(id, label string) {
	m.st.slots[id] = &models.TimeSlot{ID: id, Label: label, StartsAt: "07:00", EndsAt: "08:50"}
}

func (m *memStore) seedUser(id, name string) {
	m.st.users[id] = &models.User{ID: id, Username: name, DisplayName: name, Role: models.RoleLecturer}
}

func (m *memStore) deviceStatus(id string) models.DeviceStatus {
	defer m.enter()()
	return m.st.devices[id].Status
}

func (m *memStore) maintenanceCount() int {
	defer m.enter()()
	return len(m.st.maintenance)
}
