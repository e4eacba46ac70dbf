package borrow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConflictsEmptyDeviceListShortCircuits(t *testing.T) {
	svc, _ := newTestService(t)
	conflicts, err := svc.CheckConflicts(context.Background(), nil, testDate, "slot-1", "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCheckConflictsValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CheckConflicts(ctx, []string{"dev-1"}, time.Time{}, "slot-1", "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = svc.CheckConflicts(ctx, []string{"dev-1"}, testDate, "", "")
	require.ErrorAs(t, err, &ve)
}

// Conflict symmetry: non-empty iff an active reservation exists for the
// device at that (date, slot).
func TestCheckConflictsSymmetry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	conflicts, err := svc.CheckConflicts(ctx, []string{"dev-1"}, testDate, "slot-1", "")
	require.NoError(t, err)
	assert.Empty(t, conflicts, "no reservation yet")

	req := submitRequest(t, svc, "lect-1", "dev-1")
	conflicts, err = svc.CheckConflicts(ctx, []string{"dev-1"}, testDate, "slot-1", "")
	require.NoError(t, err)
	assert.Empty(t, conflicts, "SUBMITTED requests are not conflict sources")

	res, err := svc.Approve(ctx, req.ID, "qtvt-1", "")
	require.NoError(t, err)
	require.True(t, res.Approved)

	conflicts, err = svc.CheckConflicts(ctx, []string{"dev-1"}, testDate, "slot-1", "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, req.ID, conflicts[0].RequestID)
	assert.Equal(t, "nguyen.van.a", conflicts[0].BorrowerName)

	// other slot or other date: free
	conflicts, err = svc.CheckConflicts(ctx, []string{"dev-1"}, testDate, "slot-2", "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	conflicts, err = svc.CheckConflicts(ctx, []string{"dev-1"}, testDate.AddDate(0, 0, 1), "slot-1", "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// other device: free
	conflicts, err = svc.CheckConflicts(ctx, []string{"dev-2"}, testDate, "slot-1", "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

// Exclusion correctness: a request never conflicts with itself.
func TestCheckConflictsExcludesOwnRequest(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := submitRequest(t, svc, "lect-1", "dev-1", "dev-2")
	res, err := svc.Approve(ctx, req.ID, "qtvt-1", "")
	require.NoError(t, err)
	require.True(t, res.Approved)

	conflicts, err := svc.CheckConflicts(ctx, req.DeviceIDs(), testDate, "slot-1", req.ID)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	conflicts, err = svc.CheckConflicts(ctx, req.DeviceIDs(), testDate, "slot-1", "")
	require.NoError(t, err)
	assert.Len(t, conflicts, 2)
}

func TestCheckConflictsNormalizesDate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := submitRequest(t, svc, "lect-1", "dev-1")
	res, err := svc.Approve(ctx, req.ID, "qtvt-1", "")
	require.NoError(t, err)
	require.True(t, res.Approved)

	// same calendar day, different wall clock and zone
	hanoi := time.FixedZone("ICT", 7*3600)
	sameDay := time.Date(2026, 9, 14, 9, 30, 0, 0, hanoi)
	conflicts, err := svc.CheckConflicts(ctx, []string{"dev-1"}, sameDay, "slot-1", "")
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)
}

func TestInactiveRequestsNeverConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rejected := submitRequest(t, svc, "lect-1", "dev-1")
	require.NoError(t, svc.Reject(ctx, rejected.ID, "qtvt-1", "no"))

	cancelled, err := svc.Submit(ctx, SubmitInput{
		RequesterID: "lect-2", Date: testDate, TimeSlotID: "slot-1",
		DeviceIDs: []string{"dev-1"}, Draft: true,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, cancelled.ID, "lect-2", false))

	conflicts, err := svc.CheckConflicts(ctx, []string{"dev-1"}, testDate, "slot-1", "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}
