package registration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"podium/pkg/domain"
	"podium/pkg/platform/sentinel"
)

func seedRow(t *testing.T, s *InMemoryStore, eventID domain.EventID, status Status) domain.PrincipalID {
	t.Helper()
	pid := domain.NewPrincipalID()
	now := time.Now()
	require.NoError(t, s.Insert(context.Background(), &Registration{
		EventID:     eventID,
		PrincipalID: pid,
		Status:      StatusConfirmed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil))
	if status == StatusCancelled {
		rows, err := s.Cancel(context.Background(), eventID, pid, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, rows)
	}
	return pid
}

func TestInsertDuplicatePairReportsAlreadyUsed(t *testing.T) {
	s := NewInMemoryStore()
	eventID := domain.NewEventID()
	pid := seedRow(t, s, eventID, StatusConfirmed)

	err := s.Insert(context.Background(), &Registration{
		EventID: eventID, PrincipalID: pid, Status: StatusConfirmed,
	}, nil)
	require.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestInsertHonorsCapacityAgainstActiveRowsOnly(t *testing.T) {
	s := NewInMemoryStore()
	eventID := domain.NewEventID()
	seedRow(t, s, eventID, StatusCancelled)

	// The cancelled row does not consume a seat.
	one := 1
	err := s.Insert(context.Background(), &Registration{
		EventID: eventID, PrincipalID: domain.NewPrincipalID(), Status: StatusConfirmed,
	}, &one)
	require.NoError(t, err)

	err = s.Insert(context.Background(), &Registration{
		EventID: eventID, PrincipalID: domain.NewPrincipalID(), Status: StatusConfirmed,
	}, &one)
	require.ErrorIs(t, err, ErrEventFull)
}

func TestReviveOnlyMovesCancelledRows(t *testing.T) {
	s := NewInMemoryStore()
	eventID := domain.NewEventID()
	confirmed := seedRow(t, s, eventID, StatusConfirmed)
	cancelled := seedRow(t, s, eventID, StatusCancelled)

	rows, err := s.Revive(context.Background(), eventID, confirmed, nil, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 0, rows)

	rows, err = s.Revive(context.Background(), eventID, cancelled, nil, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)

	rows, err = s.Revive(context.Background(), eventID, domain.NewPrincipalID(), nil, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 0, rows)
}

func TestFindAbsentReportsNotFound(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Find(context.Background(), domain.NewEventID(), domain.NewPrincipalID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
