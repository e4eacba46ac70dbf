package borrow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

var testDate = time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	st := newMemStore()
	st.seedSlot("slot-1", "Tiet 1-2")
	st.seedSlot("slot-2", "Tiet 3-4")
	st.seedDevice("dev-1", "TB-0001", "ECG simulator")
	st.seedDevice("dev-2", "TB-0002", "Infusion pump")
	st.seedDevice("dev-3", "TB-0003", "Patient monitor")
	st.seedUser("lect-1", "nguyen.van.a")
	st.seedUser("lect-2", "tran.thi.b")
	st.seedUser("qtvt-1", "staff.qtvt")
	return NewService(st), st
}

func submitRequest(t *testing.T, svc *Service, requester string, deviceIDs ...string) *models.BorrowRequest {
	t.Helper()
	req, err := svc.Submit(context.Background(), SubmitInput{
		RequesterID: requester,
		Date:        testDate,
		TimeSlotID:  "slot-1",
		Purpose:     "Clinical skills class",
		DeviceIDs:   deviceIDs,
	})
	require.NoError(t, err)
	return req
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   SubmitInput
	}{
		{"missing requester", SubmitInput{Date: testDate, TimeSlotID: "slot-1", DeviceIDs: []string{"dev-1"}}},
		{"missing date", SubmitInput{RequesterID: "lect-1", TimeSlotID: "slot-1", DeviceIDs: []string{"dev-1"}}},
		{"missing slot", SubmitInput{RequesterID: "lect-1", Date: testDate, DeviceIDs: []string{"dev-1"}}},
		{"empty device list", SubmitInput{RequesterID: "lect-1", Date: testDate, TimeSlotID: "slot-1"}},
		{"duplicate device", SubmitInput{RequesterID: "lect-1", Date: testDate, TimeSlotID: "slot-1", DeviceIDs: []string{"dev-1", "dev-1"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tc.in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}

	t.Run("unknown slot", func(t *testing.T) {
		_, err := svc.Submit(ctx, SubmitInput{RequesterID: "lect-1", Date: testDate, TimeSlotID: "slot-x", DeviceIDs: []string{"dev-1"}})
		require.ErrorIs(t, err, ErrTimeSlotNotFound)
	})
	t.Run("unknown device", func(t *testing.T) {
		_, err := svc.Submit(ctx, SubmitInput{RequesterID: "lect-1", Date: testDate, TimeSlotID: "slot-1", DeviceIDs: []string{"dev-x"}})
		require.ErrorIs(t, err, ErrDeviceNotFound)
	})
}

func TestSubmitRejectsUnborrowableDevice(t *testing.T) {
	svc, st := newTestService(t)
	require.NoError(t, st.UpdateDeviceStatus(context.Background(), "dev-1", models.DeviceRetired))

	_, err := svc.Submit(context.Background(), SubmitInput{
		RequesterID: "lect-1", Date: testDate, TimeSlotID: "slot-1", DeviceIDs: []string{"dev-1"},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestSubmitCreatesSubmittedRequest(t *testing.T) {
	svc, _ := newTestService(t)
	req := submitRequest(t, svc, "lect-1", "dev-1", "dev-2")

	assert.Equal(t, models.StatusSubmitted, req.Status)
	assert.Len(t, req.Items, 2)
	assert.Equal(t, testDate, req.BorrowDate)

	// no reservations before approval
	rs, err := svc.Reservations(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestSubmitDraftThenSubmit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, SubmitInput{
		RequesterID: "lect-1", Date: testDate, TimeSlotID: "slot-1",
		DeviceIDs: []string{"dev-1"}, Draft: true,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusDraft, req.Status)

	// someone else cannot submit it
	_, err = svc.SubmitDraft(ctx, req.ID, "lect-2")
	require.ErrorIs(t, err, ErrNotRequester)

	got, err := svc.SubmitDraft(ctx, req.ID, "lect-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, got.Status)

	// submitting twice is an invalid transition
	_, err = svc.SubmitDraft(ctx, req.ID, "lect-1")
	var te *InvalidTransitionError
	require.ErrorAs(t, err, &te)
}

func TestApproveCreatesReservations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req := submitRequest(t, svc, "lect-1", "dev-1", "dev-2")

	res, err := svc.Approve(ctx, req.ID, "qtvt-1", "ok")
	require.NoError(t, err)
	require.True(t, res.Approved)
	assert.Empty(t, res.Conflicts)

	got, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	require.NotNil(t, got.ApproverID)
	assert.Equal(t, "qtvt-1", *got.ApproverID)
	assert.NotNil(t, got.ApprovedAt)
	assert.Equal(t, "ok", got.ApproverNote)

	rs, err := svc.Reservations(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	for _, r := range rs {
		assert.Equal(t, req.ID, r.RequestID)
		assert.Equal(t, "slot-1", r.TimeSlotID)
		assert.True(t, r.BorrowDate.Equal(testDate))
		assert.Nil(t, r.ReleasedAt)
	}
}

func TestApproveConflictBlocksAndMutatesNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := submitRequest(t, svc, "lect-1", "dev-1")
	b := submitRequest(t, svc, "lect-2", "dev-1", "dev-2")

	res, err := svc.Approve(ctx, a.ID, "qtvt-1", "")
	require.NoError(t, err)
	require.True(t, res.Approved)

	res, err = svc.Approve(ctx, b.ID, "qtvt-1", "")
	require.NoError(t, err)
	require.False(t, res.Approved)
	require.Len(t, res.Conflicts, 1)
	cf := res.Conflicts[0]
	assert.Equal(t, "dev-1", cf.DeviceID)
	assert.Equal(t, "TB-0001", cf.DeviceCode)
	assert.Equal(t, a.ID, cf.RequestID)
	assert.Equal(t, "lect-1", cf.BorrowerID)
	assert.Equal(t, "nguyen.van.a", cf.BorrowerName)

	// B is untouched: still SUBMITTED, no reservations, not even for dev-2
	got, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, got.Status)
	assert.Nil(t, got.ApproverID)
	rs, err := svc.Reservations(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestApproveWrongStateFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req := submitRequest(t, svc, "lect-1", "dev-1")

	res, err := svc.Approve(ctx, req.ID, "qtvt-1", "")
	require.NoError(t, err)
	require.True(t, res.Approved)

	// approving twice is rejected, which is the anti-duplication behavior
	_, err = svc.Approve(ctx, req.ID, "qtvt-1", "")
	var te *InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.StatusApproved, te.From)

	got, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestApproveUnknownRequest(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Approve(context.Background(), "nope", "qtvt-1", "")
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRejectRequiresNote(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req := submitRequest(t, svc, "lect-1", "dev-1")

	err := svc.Reject(ctx, req.ID, "qtvt-1", "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	require.NoError(t, svc.Reject(ctx, req.ID, "qtvt-1", "slot already taken by another class"))
	got, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Equal(t, "slot already taken by another class", got.ApproverNote)

	// rejected is terminal
	_, err = svc.Approve(ctx, req.ID, "qtvt-1", "")
	var te *InvalidTransitionError
	require.ErrorAs(t, err, &te)
}

func TestCancelDraftRequesterOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req, err := svc.Submit(ctx, SubmitInput{
		RequesterID: "lect-1", Date: testDate, TimeSlotID: "slot-1",
		DeviceIDs: []string{"dev-1"}, Draft: true,
	})
	require.NoError(t, err)

	// even a manager cannot cancel somebody's draft
	require.ErrorIs(t, svc.Cancel(ctx, req.ID, "qtvt-1", true), ErrNotRequester)

	require.NoError(t, svc.Cancel(ctx, req.ID, "lect-1", false))
	got, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestCancelApprovedReleasesReservations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := submitRequest(t, svc, "lect-1", "dev-1")
	res, err := svc.Approve(ctx, a.ID, "qtvt-1", "")
	require.NoError(t, err)
	require.True(t, res.Approved)

	require.NoError(t, svc.Cancel(ctx, a.ID, "qtvt-1", true))
	rs, err := svc.Reservations(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, rs)

	// the slot is free again
	b := submitRequest(t, svc, "lect-2", "dev-1")
	res, err = svc.Approve(ctx, b.ID, "qtvt-1", "")
	require.NoError(t, err)
	assert.True(t, res.Approved)
}

func TestCancelSubmittedFails(t *testing.T) {
	svc, _ := newTestService(t)
	req := submitRequest(t, svc, "lect-1", "dev-1")

	err := svc.Cancel(context.Background(), req.ID, "lect-1", false)
	var te *InvalidTransitionError
	require.ErrorAs(t, err, &te)
}

func TestConcurrentApprovalExactlyOneWins(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := submitRequest(t, svc, "lect-1", "dev-1", "dev-2")
	b := submitRequest(t, svc, "lect-2", "dev-2", "dev-3")

	var wg sync.WaitGroup
	results := make([]*ApproveResult, 2)
	errs := make([]error, 2)
	for i, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i], errs[i] = svc.Approve(ctx, id, "qtvt-1", "")
		}(i, id)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	approved := 0
	for _, r := range results {
		if r.Approved {
			approved++
		} else {
			require.NotEmpty(t, r.Conflicts)
		}
	}
	assert.Equal(t, 1, approved, "exactly one of two overlapping approvals may succeed")

	// dev-2 is reserved exactly once
	conflicts, err := svc.CheckConflicts(ctx, []string{"dev-2"}, testDate, "slot-1", "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
}

func TestConcurrentApprovalSingleDeviceManyRequests(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		ids[i] = submitRequest(t, svc, "lect-1", "dev-1").ID
	}

	var wg sync.WaitGroup
	results := make([]*ApproveResult, n)
	errs := make([]error, n)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i], errs[i] = svc.Approve(ctx, id, "qtvt-1", "")
		}(i, id)
	}
	wg.Wait()

	approved := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].Approved {
			approved++
		} else {
			require.NotEmpty(t, results[i].Conflicts)
		}
	}
	assert.Equal(t, 1, approved, "one device, one slot: a single winner no matter how many race")
}

func TestListRequestsNewestFirstWithPaging(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := submitRequest(t, svc, "lect-1", "dev-1")
	b := submitRequest(t, svc, "lect-1", "dev-2")
	c := submitRequest(t, svc, "lect-2", "dev-3")

	page1, err := svc.List(ctx, RequestFilter{Page: 1, Size: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, c.ID, page1[0].ID)
	assert.Equal(t, b.ID, page1[1].ID)

	page2, err := svc.List(ctx, RequestFilter{Page: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, a.ID, page2[0].ID)

	mine, err := svc.List(ctx, RequestFilter{RequesterID: "lect-2"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, c.ID, mine[0].ID)
}

func TestReservationBackstopRejectsDuplicate(t *testing.T) {
	_, st := newTestService(t)
	ctx := context.Background()

	first := []models.Reservation{{DeviceID: "dev-1", BorrowDate: testDate, TimeSlotID: "slot-1", RequestID: "r1"}}
	require.NoError(t, st.CreateReservations(ctx, first))

	dup := []models.Reservation{{DeviceID: "dev-1", BorrowDate: testDate, TimeSlotID: "slot-1", RequestID: "r2"}}
	require.ErrorIs(t, st.CreateReservations(ctx, dup), ErrReservationTaken)
}
