//go:build integration

package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"podium/internal/authz"
	"podium/internal/content/models"
	"podium/pkg/domain"
	"podium/pkg/platform/sentinel"
	"podium/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	ctx   context.Context
	owner domain.PrincipalID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T(), "../../../migrations")
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) TearDownSuite() {
	_ = s.pg.DB.Close()
	_ = s.pg.Container.Terminate(s.ctx)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "resources"))
	s.owner = domain.NewPrincipalID()
}

func (s *PostgresStoreSuite) create(title string, public bool) *models.Resource {
	r, err := models.New(s.owner, models.KindPresentation, title, "body", time.Now().UTC())
	s.Require().NoError(err)
	r.IsPublic = public
	s.Require().NoError(s.store.Create(s.ctx, r))
	return r
}

func (s *PostgresStoreSuite) TestFindAppliesScope() {
	private := s.create("private", false)
	public := s.create("public", true)

	stranger := authz.Scope{OwnerID: domain.NewPrincipalID(), IncludePublic: true}

	_, err := s.store.Find(s.ctx, private.ID, stranger)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	got, err := s.store.Find(s.ctx, public.ID, stranger)
	s.Require().NoError(err)
	s.Equal("public", got.Title)

	got, err = s.store.Find(s.ctx, private.ID, authz.Scope{OwnerID: s.owner, IncludePublic: true})
	s.Require().NoError(err)
	s.Equal("private", got.Title)
}

func (s *PostgresStoreSuite) TestSoftDeleteTransitionsOnce() {
	r := s.create("deck", false)

	rows, err := s.store.SoftDelete(s.ctx, r.ID, s.owner, time.Now().UTC())
	s.Require().NoError(err)
	s.EqualValues(1, rows)

	rows, err = s.store.SoftDelete(s.ctx, r.ID, s.owner, time.Now().UTC())
	s.Require().NoError(err)
	s.EqualValues(0, rows, "second delete finds no active row")

	_, err = s.store.Find(s.ctx, r.ID, authz.Scope{OwnerID: s.owner, IncludePublic: true})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSoftDeleteRejectsNonOwner() {
	r := s.create("deck", true)

	rows, err := s.store.SoftDelete(s.ctx, r.ID, domain.NewPrincipalID(), time.Now().UTC())
	s.Require().NoError(err)
	s.EqualValues(0, rows)
}

func (s *PostgresStoreSuite) TestUpdateFieldsAdvancesMarker() {
	r := s.create("deck", false)

	title := "deck v2"
	ts, err := s.store.UpdateFields(s.ctx, r.ID, s.owner, models.Fields{Title: &title}, time.Now().UTC())
	s.Require().NoError(err)

	got, err := s.store.Find(s.ctx, r.ID, authz.Scope{OwnerID: s.owner})
	s.Require().NoError(err)
	s.Equal("deck v2", got.Title)
	s.Equal("body", got.Body, "unset fields stay untouched")
	s.True(got.UpdatedAt.After(r.UpdatedAt))
	s.True(got.UpdatedAt.Equal(ts), "returned marker matches the stored row")
}

func (s *PostgresStoreSuite) TestUpdateFieldsMarkerSurvivesClockRegression() {
	r := s.create("deck", false)

	title := "deck v2"
	past := time.Now().UTC().Add(-time.Hour)
	ts, err := s.store.UpdateFields(s.ctx, r.ID, s.owner, models.Fields{Title: &title}, past)
	s.Require().NoError(err)

	got, err := s.store.Find(s.ctx, r.ID, authz.Scope{OwnerID: s.owner})
	s.Require().NoError(err)
	s.True(got.UpdatedAt.After(r.UpdatedAt), "marker must advance even when the clock regresses")
	s.True(got.UpdatedAt.Equal(ts), "the caller sees the marker that was actually stored, not the stale clock")
}

func (s *PostgresStoreSuite) TestDuplicateCopiesRowAtomically() {
	r := s.create("Launch deck", false)

	newID, err := s.store.Duplicate(s.ctx, r.ID, s.owner, time.Now().UTC())
	s.Require().NoError(err)
	s.NotEqual(r.ID, newID)

	dup, err := s.store.Find(s.ctx, newID, authz.Scope{OwnerID: s.owner})
	s.Require().NoError(err)
	s.Equal("Launch deck (Copy)", dup.Title)
	s.Equal(models.StatusDraft, dup.Status)
	s.False(dup.IsPublic)
}

func (s *PostgresStoreSuite) TestDuplicateMaxLengthTitle() {
	long := strings.Repeat("x", 256)
	r := s.create(long, false)

	newID, err := s.store.Duplicate(s.ctx, r.ID, s.owner, time.Now().UTC())
	s.Require().NoError(err, "the title column must admit the suffix on a max-length title")

	dup, err := s.store.Find(s.ctx, newID, authz.Scope{OwnerID: s.owner})
	s.Require().NoError(err)
	s.Equal(long+" (Copy)", dup.Title)
}

func (s *PostgresStoreSuite) TestDuplicateMergesPreconditionFailures() {
	r := s.create("deck", true)

	_, errStranger := s.store.Duplicate(s.ctx, r.ID, domain.NewPrincipalID(), time.Now().UTC())
	_, errAbsent := s.store.Duplicate(s.ctx, domain.NewResourceID(), s.owner, time.Now().UTC())

	s.Require().ErrorIs(errStranger, sentinel.ErrNotFound)
	s.Require().ErrorIs(errAbsent, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOrdersByRecency() {
	first := s.create("first", false)
	second := s.create("second", false)

	title := "first edited"
	_, err := s.store.UpdateFields(s.ctx, first.ID, s.owner, models.Fields{Title: &title}, time.Now().UTC())
	s.Require().NoError(err)

	list, err := s.store.List(s.ctx, authz.Scope{OwnerID: s.owner, IncludePublic: true}, 10)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("first edited", list[0].Title)
	s.Equal(second.Title, list[1].Title)
}
