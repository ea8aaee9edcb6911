package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rotor-modal/client/internal/analysis"
	"github.com/rotor-modal/client/internal/results"
	"github.com/rotor-modal/client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctrl     *Controller
	files    *testutil.MockStorage
	analyzer *testutil.StubAnalyzer
	handoff  *results.Store
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		files:    testutil.NewMockStorage(),
		analyzer: testutil.NewStubAnalyzer(testutil.SampleResult()),
		handoff:  results.NewStore(),
	}
	f.ctrl = NewController("session-1234567890", f.files, f.analyzer, f.handoff, opts...)
	t.Cleanup(f.ctrl.Close)
	return f
}

func (f *fixture) selectBoth(t *testing.T) {
	t.Helper()
	dat := f.files.AddFile("dat-1", "run.dat", []byte("displacements"))
	inp := f.files.AddFile("inp-1", "run.inp", []byte("positions"))
	require.NoError(t, f.ctrl.Select(RoleDisplacement, dat))
	require.NoError(t, f.ctrl.Select(RolePosition, inp))
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestController_ReadyRegardlessOfOrder(t *testing.T) {
	orders := [][]Role{
		{RoleDisplacement, RolePosition},
		{RolePosition, RoleDisplacement},
	}
	for _, order := range orders {
		f := newFixture(t)
		assert.Equal(t, StateIdle, f.ctrl.State())

		f.ctrl.Select(order[0], f.files.AddFile(string(order[0]), "a", nil))
		assert.False(t, f.ctrl.IsReady())
		assert.Equal(t, StateIdle, f.ctrl.State())

		f.ctrl.Select(order[1], f.files.AddFile(string(order[1]), "b", nil))
		assert.True(t, f.ctrl.IsReady())
		assert.Equal(t, StateReady, f.ctrl.State())
	}
}

func TestController_ReplacementReleasesOldFile(t *testing.T) {
	f := newFixture(t)
	old := f.files.AddFile("old", "old.dat", nil)
	repl := f.files.AddFile("new", "new.dat", nil)

	require.NoError(t, f.ctrl.Select(RoleDisplacement, old))
	require.NoError(t, f.ctrl.Select(RoleDisplacement, repl))

	snap := f.ctrl.Snapshot()
	assert.Equal(t, "new.dat", snap.Slot(RoleDisplacement).File.Name)
	assert.Equal(t, []string{"old"}, f.files.Deleted())
}

func TestController_EmptyDropLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	f.selectBoth(t)
	before := f.ctrl.Snapshot()

	require.NoError(t, f.ctrl.Drop(RolePosition, nil))

	after := f.ctrl.Snapshot()
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.Slot(RolePosition).File.ID, after.Slot(RolePosition).File.ID)
}

func TestController_SubmitWithoutFilesIsValidationError(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Select(RoleDisplacement, f.files.AddFile("d", "only.dat", nil))

	err := f.ctrl.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, NoticeBothFilesRequired, f.ctrl.Snapshot().Notice)
	assert.Equal(t, 0, f.analyzer.Calls())
	assert.Equal(t, StateIdle, f.ctrl.State())
}

func TestController_SubmitSuccessHandsOffResult(t *testing.T) {
	var completed []Completion
	f := newFixture(t, WithCompletionHook(func(c Completion) { completed = append(completed, c) }))
	f.selectBoth(t)

	require.NoError(t, f.ctrl.Submit(context.Background()))
	snap, err := f.ctrl.Wait(waitCtx(t))
	require.NoError(t, err)

	assert.Equal(t, StateDone, snap.State)
	assert.NotEmpty(t, snap.ResultID)
	for _, v := range snap.Slots {
		assert.Nil(t, v.File, "slot %s should be cleared", v.Role)
	}
	assert.ElementsMatch(t, []string{"dat-1", "inp-1"}, f.files.Deleted())

	result, ok := f.handoff.Get("session-1234567890", snap.ResultID)
	require.True(t, ok)
	assert.Len(t, result.Results, 2)

	_, ok = f.handoff.Get("someone-else", snap.ResultID)
	assert.False(t, ok)

	require.Len(t, completed, 1)
	assert.Equal(t, "run.dat", completed[0].Displacement)
	assert.Equal(t, "run.inp", completed[0].Position)

	reqs := f.analyzer.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []byte("displacements"), reqs[0].Displacement().Data)
	assert.Equal(t, []byte("positions"), reqs[0].Position().Data)
}

func TestController_NoSecondCallWhileSubmitting(t *testing.T) {
	f := newFixture(t)
	f.analyzer.Gate = make(chan struct{})
	f.selectBoth(t)

	require.NoError(t, f.ctrl.Submit(context.Background()))
	snap := f.ctrl.Snapshot()
	assert.Equal(t, StateSubmitting, snap.State)
	assert.True(t, snap.Processing)
	assert.False(t, snap.CanSubmit)

	err := f.ctrl.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrSubmissionInFlight))

	close(f.analyzer.Gate)
	_, err = f.ctrl.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 1, f.analyzer.Calls())
}

func TestController_SlotChangesDuringSubmitDoNotAffectRequest(t *testing.T) {
	f := newFixture(t)
	f.analyzer.Gate = make(chan struct{})
	f.selectBoth(t)

	require.NoError(t, f.ctrl.Submit(context.Background()))
	require.NoError(t, f.ctrl.Select(RoleDisplacement, f.files.AddFile("other", "other.dat", []byte("other"))))
	require.NoError(t, f.ctrl.Clear(RolePosition))
	assert.Equal(t, StateSubmitting, f.ctrl.State())

	close(f.analyzer.Gate)
	_, err := f.ctrl.Wait(waitCtx(t))
	require.NoError(t, err)

	reqs := f.analyzer.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "run.dat", reqs[0].Displacement().Name)
	assert.Equal(t, []byte("displacements"), reqs[0].Displacement().Data)
	assert.Equal(t, "run.inp", reqs[0].Position().Name)
	assert.Equal(t, []byte("positions"), reqs[0].Position().Data)
}

func TestController_FailurePreservesSlots(t *testing.T) {
	f := newFixture(t)
	f.analyzer.Err = &analysis.Error{Kind: analysis.ServerFailure, Status: 500, Message: "boom"}
	f.selectBoth(t)

	require.NoError(t, f.ctrl.Submit(context.Background()))
	snap, err := f.ctrl.Wait(waitCtx(t))
	require.NoError(t, err)

	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, NoticeSubmissionFailed, snap.Notice)
	assert.Equal(t, string(analysis.ServerFailure), snap.ErrorKind)
	assert.True(t, snap.Ready)
	assert.True(t, snap.CanSubmit)
	assert.Equal(t, "run.dat", snap.Slot(RoleDisplacement).File.Name)
	assert.Equal(t, "run.inp", snap.Slot(RolePosition).File.Name)
	assert.Empty(t, f.files.Deleted())
	assert.Equal(t, 0, f.handoff.Len())

	// retry with the same files succeeds
	f.analyzer.Err = nil
	require.NoError(t, f.ctrl.Submit(context.Background()))
	snap, err = f.ctrl.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StateDone, snap.State)
	assert.Equal(t, 2, f.analyzer.Calls())
}

func TestController_SlotChangeClearsFailureNotice(t *testing.T) {
	f := newFixture(t)
	f.analyzer.Err = errors.New("unreachable")
	f.selectBoth(t)

	require.NoError(t, f.ctrl.Submit(context.Background()))
	f.ctrl.Wait(waitCtx(t))

	require.NoError(t, f.ctrl.Clear(RolePosition))
	snap := f.ctrl.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Notice)
}

func TestController_CaptureFailureFails(t *testing.T) {
	f := newFixture(t)
	f.selectBoth(t)
	f.files.ReadErr = errors.New("disk gone")

	err := f.ctrl.Submit(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateFailed, f.ctrl.State())
	assert.Equal(t, 0, f.analyzer.Calls())
}

func TestController_TimeoutIsNetworkFailure(t *testing.T) {
	f := newFixture(t, WithTimeout(20*time.Millisecond))
	f.analyzer.Gate = make(chan struct{})
	f.selectBoth(t)

	require.NoError(t, f.ctrl.Submit(context.Background()))
	snap, err := f.ctrl.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, string(analysis.NetworkFailure), snap.ErrorKind)
}

func TestController_SelectAfterDoneResets(t *testing.T) {
	f := newFixture(t)
	f.selectBoth(t)
	require.NoError(t, f.ctrl.Submit(context.Background()))
	snap, _ := f.ctrl.Wait(waitCtx(t))
	require.Equal(t, StateDone, snap.State)

	require.NoError(t, f.ctrl.Select(RoleDisplacement, f.files.AddFile("d2", "next.dat", nil)))
	after := f.ctrl.Snapshot()
	assert.Equal(t, StateIdle, after.State)
	assert.Empty(t, after.ResultID)
	assert.Equal(t, 0, f.handoff.Len())
}

func TestController_EmptyDropAfterDoneKeepsResult(t *testing.T) {
	f := newFixture(t)
	f.selectBoth(t)
	require.NoError(t, f.ctrl.Submit(context.Background()))
	snap, _ := f.ctrl.Wait(waitCtx(t))
	require.Equal(t, StateDone, snap.State)

	require.NoError(t, f.ctrl.Drop(RoleDisplacement, nil))
	after := f.ctrl.Snapshot()
	assert.Equal(t, StateDone, after.State)
	assert.Equal(t, snap.ResultID, after.ResultID)
	assert.Equal(t, 1, f.handoff.Len())
}

func TestController_ResetDiscardsResult(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.ctrl.Reset())

	f.selectBoth(t)
	require.NoError(t, f.ctrl.Submit(context.Background()))
	snap, _ := f.ctrl.Wait(waitCtx(t))

	assert.Equal(t, snap.ResultID, f.ctrl.Reset())
	assert.Equal(t, StateIdle, f.ctrl.State())
	assert.Equal(t, 0, f.handoff.Len())
}

func TestController_DragActiveKeepsNotice(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Submit(context.Background())
	require.Equal(t, NoticeBothFilesRequired, f.ctrl.Snapshot().Notice)

	require.NoError(t, f.ctrl.SetDragActive(RoleDisplacement, true))
	snap := f.ctrl.Snapshot()
	assert.True(t, snap.Slot(RoleDisplacement).DragActive)
	assert.Equal(t, NoticeBothFilesRequired, snap.Notice)
}

func TestController_SubscribeReceivesChanges(t *testing.T) {
	f := newFixture(t)
	ch, cancel := f.ctrl.Subscribe()
	defer cancel()

	initial := <-ch
	assert.Equal(t, StateIdle, initial.State)

	f.selectBoth(t)
	var last Snapshot
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, StateReady, last.State)
}

func TestController_ClosedRejectsChanges(t *testing.T) {
	f := newFixture(t)
	f.selectBoth(t)
	ch, _ := f.ctrl.Subscribe()
	<-ch

	f.ctrl.Close()
	_, open := <-ch
	assert.False(t, open)
	assert.Len(t, f.files.Deleted(), 2)

	assert.ErrorIs(t, f.ctrl.Select(RoleDisplacement, nil), ErrClosed)
	assert.ErrorIs(t, f.ctrl.Submit(context.Background()), ErrClosed)
}

func TestController_UnknownRole(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ctrl.Select(Role("csv"), nil), ErrUnknownRole)
	assert.ErrorIs(t, f.ctrl.SetDragActive(Role("csv"), true), ErrUnknownRole)
}
