package repository

import (
	"context"
	"testing"
	"time"

	"dietcoach/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMock(t *testing.T) *mtest.T {
	t.Helper()
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func toDoc(t testing.TB, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func ack(n int) bson.D {
	return bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: n}, {Key: "nModified", Value: n}}
}

func TestUserRepo(t *testing.T) {
	mt := newMock(t)

	mt.Run("create normalizes email and sets id", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &models.User{Email: "  Coach@Example.COM ", Name: "Coach"}
		require.NoError(mt, repo.CreateUser(context.Background(), u))
		assert.Equal(mt, "coach@example.com", u.Email)
		assert.False(mt, u.ID.IsZero())
		assert.False(mt, u.CreatedAt.IsZero())
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		err := repo.CreateUser(context.Background(), &models.User{Email: "a@b.c"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("get by email", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "a@b.c"},
			{Key: "name", Value: "Ann"},
		}))

		u, err := repo.GetUserByEmail(context.Background(), "A@B.C")
		require.NoError(mt, err)
		assert.Equal(mt, id, u.ID)
		assert.Equal(mt, "Ann", u.Name)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := repo.GetUserByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll}
		mt.AddMockResponses(ack(0))

		err := repo.UpdateUser(context.Background(), &models.User{ID: primitive.NewObjectID()})
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestSessionRepo(t *testing.T) {
	mt := newMock(t)

	mt.Run("active", func(mt *mtest.T) {
		repo := &MongoSessionRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}))

		ok, err := repo.SessionActive(context.Background(), "tok")
		require.NoError(mt, err)
		assert.True(mt, ok)
	})

	mt.Run("delete unknown token", func(mt *mtest.T) {
		repo := &MongoSessionRepo{coll: mt.Coll}
		mt.AddMockResponses(ack(0))

		assert.ErrorIs(mt, repo.DeleteSession(context.Background(), "tok"), ErrNotFound)
	})
}

func TestClientRepo(t *testing.T) {
	mt := newMock(t)
	userID := primitive.NewObjectID()

	mt.Run("list", func(mt *mtest.T) {
		repo := &MongoClientRepo{coll: mt.Coll}
		a := models.Client{ID: primitive.NewObjectID(), UserID: userID, Name: "Ann", ReferenceCode: "AAAA2222"}
		b := models.Client{ID: primitive.NewObjectID(), UserID: userID, Name: "Bob", ReferenceCode: "BBBB3333"}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns(mt), mtest.FirstBatch, toDoc(mt, a)),
			mtest.CreateCursorResponse(0, ns(mt), mtest.NextBatch, toDoc(mt, b)),
		)

		active := true
		got, err := repo.ListClients(context.Background(), userID, ClientFilter{Search: "a.n", Active: &active})
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "Ann", got[0].Name)
		assert.Equal(mt, "BBBB3333", got[1].ReferenceCode)
	})

	mt.Run("list empty returns empty slice", func(mt *mtest.T) {
		repo := &MongoClientRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		got, err := repo.ListClients(context.Background(), userID, ClientFilter{})
		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})

	mt.Run("delete not owned", func(mt *mtest.T) {
		repo := &MongoClientRepo{coll: mt.Coll}
		mt.AddMockResponses(ack(0))

		err := repo.DeleteClient(context.Background(), userID, primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("set telegram chat", func(mt *mtest.T) {
		repo := &MongoClientRepo{coll: mt.Coll}
		mt.AddMockResponses(ack(1))

		require.NoError(mt, repo.SetTelegramChat(context.Background(), primitive.NewObjectID(), 42))
	})

	mt.Run("update reports missing document", func(mt *mtest.T) {
		repo := &MongoClientRepo{coll: mt.Coll}
		mt.AddMockResponses(ack(0))

		err := repo.UpdateClient(context.Background(), &models.Client{ID: primitive.NewObjectID(), UserID: userID})
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestAppointmentRepo_Overlapping(t *testing.T) {
	mt := newMock(t)
	userID := primitive.NewObjectID()
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("filters candidates that end before start", func(mt *mtest.T) {
		repo := &MongoAppointmentRepo{coll: mt.Coll}
		early := models.Appointment{ID: primitive.NewObjectID(), UserID: userID, Date: start.Add(-2 * time.Hour), DurationMinutes: 60, Status: models.StatusScheduled}
		clash := models.Appointment{ID: primitive.NewObjectID(), UserID: userID, Date: start.Add(-30 * time.Minute), DurationMinutes: 60, Status: models.StatusScheduled}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns(mt), mtest.FirstBatch, toDoc(mt, early)),
			mtest.CreateCursorResponse(0, ns(mt), mtest.NextBatch, toDoc(mt, clash)),
		)

		got, err := repo.Overlapping(context.Background(), userID, start, start.Add(time.Hour), primitive.NilObjectID)
		require.NoError(mt, err)
		require.Len(mt, got, 1)
		assert.Equal(mt, clash.ID, got[0].ID)
	})

	mt.Run("next appointment missing", func(mt *mtest.T) {
		repo := &MongoAppointmentRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := repo.NextAppointment(context.Background(), userID, primitive.NewObjectID(), start)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("mark reminder sent", func(mt *mtest.T) {
		repo := &MongoAppointmentRepo{coll: mt.Coll}
		mt.AddMockResponses(ack(1))

		require.NoError(mt, repo.MarkReminderSent(context.Background(), primitive.NewObjectID()))
	})
}

func TestMeasurementRepo_DeleteByClient(t *testing.T) {
	mt := newMock(t)

	mt.Run("returns deleted count", func(mt *mtest.T) {
		repo := &MongoMeasurementRepo{coll: mt.Coll}
		mt.AddMockResponses(ack(3))

		n, err := repo.DeleteClientMeasurements(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})
}

func TestDietPlanRepo_Active(t *testing.T) {
	mt := newMock(t)
	userID, clientID := primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("active plan", func(mt *mtest.T) {
		repo := &MongoDietPlanRepo{coll: mt.Coll}
		plan := models.DietPlan{ID: primitive.NewObjectID(), UserID: userID, ClientID: clientID, Title: "Cut", IsActive: true}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, toDoc(mt, plan)))

		got, err := repo.ActiveDietPlan(context.Background(), userID, clientID)
		require.NoError(mt, err)
		assert.Equal(mt, "Cut", got.Title)
	})

	mt.Run("deactivate others", func(mt *mtest.T) {
		repo := &MongoDietPlanRepo{coll: mt.Coll}
		mt.AddMockResponses(ack(2))

		require.NoError(mt, repo.DeactivateOthers(context.Background(), userID, clientID, primitive.NewObjectID()))
	})
}

func TestActivityRepo_Create(t *testing.T) {
	mt := newMock(t)

	mt.Run("create", func(mt *mtest.T) {
		repo := &MongoActivityRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		a := &models.Activity{UserID: primitive.NewObjectID(), Type: models.ActivityNote, Description: "called"}
		require.NoError(mt, repo.CreateActivity(context.Background(), a))
		assert.False(mt, a.ID.IsZero())
	})
}
