package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
)

func TestNewValidatesInput(t *testing.T) {
	owner := domain.NewPrincipalID()
	now := time.Now()

	_, err := New(owner, KindPresentation, "   ", "", now)
	require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = New(owner, KindPresentation, strings.Repeat("x", 257), "", now)
	require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = New(owner, Kind("wiki"), "title", "", now)
	require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	r, err := New(owner, KindEvent, "  Launch party  ", "body", now)
	require.NoError(t, err)
	require.Equal(t, "Launch party", r.Title, "title is trimmed")
	require.Equal(t, StatusDraft, r.Status)
	require.False(t, r.IsPublic)
}

func TestDuplicateIntoResetsDerivedState(t *testing.T) {
	owner := domain.NewPrincipalID()
	now := time.Now()
	capacity := 10

	src, err := New(owner, KindEvent, "Launch party", "body", now)
	require.NoError(t, err)
	src.ID = domain.NewResourceID()
	src.Status = StatusPublished
	src.IsPublic = true
	src.Capacity = &capacity

	newID := domain.NewResourceID()
	later := now.Add(time.Hour)
	dup := src.DuplicateInto(newID, later)

	require.Equal(t, newID, dup.ID)
	require.Equal(t, "Launch party (Copy)", dup.Title)
	require.Equal(t, StatusDraft, dup.Status)
	require.False(t, dup.IsPublic, "copies never inherit visibility")
	require.Nil(t, dup.DeletedAt)
	require.Equal(t, later, dup.CreatedAt)

	// Deep copy: mutating the duplicate's capacity leaves the source alone.
	*dup.Capacity = 1
	require.Equal(t, 10, *src.Capacity)

	// Source untouched.
	require.Equal(t, "Launch party", src.Title)
	require.Equal(t, StatusPublished, src.Status)
}

func TestTouchStrictlyAdvancesMarker(t *testing.T) {
	owner := domain.NewPrincipalID()
	now := time.Now()
	r, err := New(owner, KindPresentation, "deck", "", now)
	require.NoError(t, err)

	// A regressed clock still moves the marker forward.
	r.Touch(now.Add(-time.Minute))
	require.True(t, r.UpdatedAt.After(now))

	prev := r.UpdatedAt
	r.Touch(prev)
	require.True(t, r.UpdatedAt.After(prev))
}

func TestSoftDeleteIsOneWay(t *testing.T) {
	owner := domain.NewPrincipalID()
	now := time.Now()
	r, err := New(owner, KindPresentation, "deck", "", now)
	require.NoError(t, err)

	require.False(t, r.IsDeleted())
	r.ApplySoftDelete(now.Add(time.Second))
	require.True(t, r.IsDeleted())
	require.True(t, r.UpdatedAt.After(now))
}

func TestFieldsMergeNewerWins(t *testing.T) {
	title1, title2 := "one", "two"
	body := "body"
	status := StatusPublished

	merged := Fields{Title: &title1, Body: &body}.Merge(Fields{Title: &title2, Status: &status})
	require.Equal(t, "two", *merged.Title)
	require.Equal(t, "body", *merged.Body)
	require.Equal(t, StatusPublished, *merged.Status)

	require.True(t, Fields{}.IsEmpty())
	require.False(t, merged.IsEmpty())
}

func TestFieldsApplyToTouchesResource(t *testing.T) {
	owner := domain.NewPrincipalID()
	now := time.Now()
	r, err := New(owner, KindPresentation, "deck", "body", now)
	require.NoError(t, err)

	title := "deck v2"
	Fields{Title: &title}.ApplyTo(r, now.Add(time.Second))
	require.Equal(t, "deck v2", r.Title)
	require.Equal(t, "body", r.Body, "unset members stay untouched")
	require.True(t, r.UpdatedAt.After(now))
}
