package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequencia-app/sequencia/internal/models"
)

func TestStorage_Users(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("register and get user", func(t *testing.T) {
		uid := uuid.NewString()
		newUID, err := storage.RegisterUser(ctx, models.User{
			UID:                uid,
			Email:              "runner@example.com",
			Username:           "runner",
			PasswordHash:       "hashed",
			Role:               "user",
			SubscriptionStatus: "none",
		})
		require.NoError(t, err)
		assert.Equal(t, uid, newUID)

		user, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "runner", user.Username)
		assert.Equal(t, "runner@example.com", user.Email)
		assert.False(t, user.IsPremium)
		assert.Nil(t, user.TrialStartedAt)

		byName, err := storage.GetUserByUsername(ctx, "runner")
		require.NoError(t, err)
		assert.Equal(t, uid, byName.UID)
	})

	t.Run("get missing user returns ErrNotFound", func(t *testing.T) {
		_, err := storage.GetUser(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = storage.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find user uid by email", func(t *testing.T) {
		factory := NewTestDataFactory(storage)
		uid := factory.CreateUser(t, "emailuser", "emailuser@example.com")

		found, err := storage.FindUserUIDByEmail(ctx, "emailuser@example.com")
		require.NoError(t, err)
		assert.Equal(t, uid, found)

		_, err = storage.FindUserUIDByEmail(ctx, "unknown@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update premium is idempotent", func(t *testing.T) {
		factory := NewTestDataFactory(storage)
		uid := factory.CreateUser(t, "premuser", "premuser@example.com")

		require.NoError(t, storage.UpdatePremium(ctx, uid, true, "active"))
		require.NoError(t, storage.UpdatePremium(ctx, uid, true, "active"))

		user, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.True(t, user.IsPremium)
		assert.Equal(t, "active", user.SubscriptionStatus)

		err = storage.UpdatePremium(ctx, uuid.NewString(), true, "active")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("start trial only sets date once", func(t *testing.T) {
		factory := NewTestDataFactory(storage)
		uid := factory.CreateUser(t, "trialuser", "trialuser@example.com")

		first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
		require.NoError(t, storage.StartTrial(ctx, uid, first))
		require.NoError(t, storage.StartTrial(ctx, uid, first.AddDate(0, 0, 10)))

		user, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		require.NotNil(t, user.TrialStartedAt)
		assert.True(t, user.TrialStartedAt.Equal(first))
	})
}

func TestStorage_Habits(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "habituser", "habituser@example.com")

	t.Run("create and list habits", func(t *testing.T) {
		habitID, err := storage.CreateHabit(ctx, models.Habit{
			UserUID:     userUID,
			Title:       "Morning run",
			Description: "5 km before work",
			Icon:        "shoe",
			Color:       "#ff0000",
			Frequency:   "daily",
			IsActive:    true,
		})
		require.NoError(t, err)
		require.NotEmpty(t, habitID)

		habits, err := storage.ListHabits(ctx, userUID)
		require.NoError(t, err)
		require.Len(t, habits, 1)
		assert.Equal(t, "Morning run", habits[0].Title)
		assert.Equal(t, "5 km before work", habits[0].Description)

		owner, err := storage.GetHabitOwner(ctx, habitID)
		require.NoError(t, err)
		assert.Equal(t, userUID, owner)
	})

	t.Run("owner of missing habit returns ErrNotFound", func(t *testing.T) {
		_, err := storage.GetHabitOwner(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list excludes inactive habits", func(t *testing.T) {
		otherUID := factory.CreateUser(t, "inactiveowner", "inactiveowner@example.com")
		_, err := storage.DB.Exec(`INSERT INTO habits (user_uid, title, is_active) VALUES ($1, $2, false)`,
			otherUID, "Abandoned")
		require.NoError(t, err)

		habits, err := storage.ListHabits(ctx, otherUID)
		require.NoError(t, err)
		assert.Empty(t, habits)
	})

	t.Run("logs lifecycle", func(t *testing.T) {
		habitID := factory.CreateHabitRow(t, userUID, "Read books")

		today := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
		yesterday := today.AddDate(0, 0, -1)

		_, err := storage.CreateLog(ctx, models.HabitLog{HabitID: habitID, UserUID: userUID, CompletedAt: today})
		require.NoError(t, err)
		_, err = storage.CreateLog(ctx, models.HabitLog{HabitID: habitID, UserUID: userUID, CompletedAt: yesterday})
		require.NoError(t, err)

		logs, err := storage.ListLogs(ctx, habitID)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		// новые первыми
		assert.True(t, logs[0].CompletedAt.After(logs[1].CompletedAt))
	})

	t.Run("delete logs only for the requested day", func(t *testing.T) {
		habitID := factory.CreateHabitRow(t, userUID, "Meditation")

		today := time.Date(2026, 8, 31, 23, 50, 0, 0, time.UTC)
		yesterday := time.Date(2026, 8, 30, 0, 5, 0, 0, time.UTC)
		factory.CreateLogRow(t, habitID, userUID, today)
		factory.CreateLogRow(t, habitID, userUID, yesterday)

		deleted, err := storage.DeleteLogsForDay(ctx, habitID, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		logs, err := storage.ListLogs(ctx, habitID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.True(t, logs[0].CompletedAt.Equal(yesterday))
	})

	t.Run("remove habit cascades logs", func(t *testing.T) {
		habitID := factory.CreateHabitRow(t, userUID, "Stretching")
		factory.CreateLogRow(t, habitID, userUID, time.Now().UTC())

		removed, err := storage.RemoveHabit(ctx, userUID, habitID)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		logs, err := storage.ListLogs(ctx, habitID)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("remove foreign habit deletes nothing", func(t *testing.T) {
		habitID := factory.CreateHabitRow(t, userUID, "Private habit")
		strangerUID := factory.CreateUser(t, "stranger", "stranger@example.com")

		removed, err := storage.RemoveHabit(ctx, strangerUID, habitID)
		require.NoError(t, err)
		assert.Equal(t, 0, removed)
	})
}

func TestStorage_Posts(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	authorUID := factory.CreateUser(t, "author", "author@example.com")

	t.Run("create and list posts with author username", func(t *testing.T) {
		postID, err := storage.CreatePost(ctx, models.Post{UserUID: authorUID, Content: "Day 30 of running!"})
		require.NoError(t, err)
		require.NotEmpty(t, postID)

		posts, err := storage.ListPosts(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "author", posts[0].Username)
		assert.Equal(t, "Day 30 of running!", posts[0].Content)
		assert.Equal(t, 0, posts[0].LikesCount)
	})

	t.Run("pagination returns newest first", func(t *testing.T) {
		// заведомо позже постов из других подтестов
		base := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
		for i, content := range []string{"first", "second", "third"} {
			_, err := storage.DB.Exec(`INSERT INTO posts (user_uid, content, created_at) VALUES ($1, $2, $3)`,
				authorUID, content, base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, err)
		}

		posts, err := storage.ListPosts(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "third", posts[0].Content)
		assert.Equal(t, "second", posts[1].Content)
	})

	t.Run("like post twice counts once", func(t *testing.T) {
		postID, err := storage.CreatePost(ctx, models.Post{UserUID: authorUID, Content: "like me"})
		require.NoError(t, err)
		likerUID := factory.CreateUser(t, "liker", "liker@example.com")

		likes, err := storage.LikePost(ctx, likerUID, postID)
		require.NoError(t, err)
		assert.Equal(t, 1, likes)

		likes, err = storage.LikePost(ctx, likerUID, postID)
		require.NoError(t, err)
		assert.Equal(t, 1, likes)

		likes, err = storage.LikePost(ctx, authorUID, postID)
		require.NoError(t, err)
		assert.Equal(t, 2, likes)
	})

	t.Run("remove post by owner only", func(t *testing.T) {
		postID, err := storage.CreatePost(ctx, models.Post{UserUID: authorUID, Content: "to delete"})
		require.NoError(t, err)
		strangerUID := factory.CreateUser(t, "poststranger", "poststranger@example.com")

		removed, err := storage.RemovePost(ctx, strangerUID, postID)
		require.NoError(t, err)
		assert.Equal(t, 0, removed)

		removed, err = storage.RemovePost(ctx, authorUID, postID)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
	})
}

func TestStorage_Billing(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "billinguser", "billinguser@example.com")

	t.Run("billing customer mapping round trip", func(t *testing.T) {
		err := storage.UpsertBillingCustomer(ctx, models.BillingCustomer{
			UserUID:          userUID,
			StripeCustomerID: "cus_123",
		})
		require.NoError(t, err)

		found, err := storage.FindUserUIDByCustomerID(ctx, "cus_123")
		require.NoError(t, err)
		assert.Equal(t, userUID, found)

		customerID, err := storage.GetCustomerIDByUserUID(ctx, userUID)
		require.NoError(t, err)
		assert.Equal(t, "cus_123", customerID)
	})

	t.Run("repeated mapping write is a no-op", func(t *testing.T) {
		err := storage.UpsertBillingCustomer(ctx, models.BillingCustomer{
			UserUID:          userUID,
			StripeCustomerID: "cus_123",
		})
		require.NoError(t, err)

		var count int
		err = storage.DB.QueryRow(`SELECT COUNT(*) FROM customers WHERE user_uid = $1`, userUID).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("missing mapping returns ErrNotFound", func(t *testing.T) {
		_, err := storage.FindUserUIDByCustomerID(ctx, "cus_missing")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = storage.GetCustomerIDByUserUID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("upsert subscription updates existing row", func(t *testing.T) {
		periodEnd := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
		err := storage.UpsertSubscription(ctx, models.Subscription{
			StripeSubscriptionID: "sub_123",
			StripeCustomerID:     "cus_123",
			UserUID:              userUID,
			Status:               "trialing",
			PriceID:              "price_123",
			Quantity:             1,
		})
		require.NoError(t, err)

		err = storage.UpsertSubscription(ctx, models.Subscription{
			StripeSubscriptionID: "sub_123",
			StripeCustomerID:     "cus_123",
			UserUID:              userUID,
			Status:               "active",
			PriceID:              "price_123",
			Quantity:             1,
			CurrentPeriodEnd:     &periodEnd,
		})
		require.NoError(t, err)

		var count int
		err = storage.DB.QueryRow(`SELECT COUNT(*) FROM subscriptions WHERE stripe_subscription_id = 'sub_123'`).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		sub, err := storage.GetSubscriptionByUserUID(ctx, userUID)
		require.NoError(t, err)
		assert.Equal(t, "active", sub.Status)
		require.NotNil(t, sub.CurrentPeriodEnd)
		assert.True(t, sub.CurrentPeriodEnd.Equal(periodEnd))
	})

	t.Run("cancellation keeps price and period fields", func(t *testing.T) {
		periodEnd := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)
		require.NoError(t, storage.UpsertSubscription(ctx, models.Subscription{
			StripeSubscriptionID: "sub_cancel",
			StripeCustomerID:     "cus_123",
			UserUID:              userUID,
			Status:               "active",
			PriceID:              "price_123",
			Quantity:             2,
			CurrentPeriodEnd:     &periodEnd,
		}))

		require.NoError(t, storage.MarkSubscriptionCanceled(ctx, models.Subscription{
			StripeSubscriptionID: "sub_cancel",
			StripeCustomerID:     "cus_123",
			UserUID:              userUID,
			Status:               "canceled",
		}))

		var status, priceID string
		var quantity int
		var gotPeriodEnd time.Time
		err := storage.DB.QueryRow(`SELECT status, price_id, quantity, current_period_end
			FROM subscriptions WHERE stripe_subscription_id = 'sub_cancel'`).
			Scan(&status, &priceID, &quantity, &gotPeriodEnd)
		require.NoError(t, err)
		assert.Equal(t, "canceled", status)
		assert.Equal(t, "price_123", priceID)
		assert.Equal(t, 2, quantity)
		assert.True(t, gotPeriodEnd.Equal(periodEnd))
	})

	t.Run("cancellation without prior record creates a minimal row", func(t *testing.T) {
		require.NoError(t, storage.MarkSubscriptionCanceled(ctx, models.Subscription{
			StripeSubscriptionID: "sub_orphan",
			StripeCustomerID:     "cus_123",
			UserUID:              userUID,
			Status:               "canceled",
		}))

		var status string
		err := storage.DB.QueryRow(`SELECT status FROM subscriptions
			WHERE stripe_subscription_id = 'sub_orphan'`).Scan(&status)
		require.NoError(t, err)
		assert.Equal(t, "canceled", status)
	})

	t.Run("missing subscription returns ErrNotFound", func(t *testing.T) {
		emptyUID := factory.CreateUser(t, "nosubs", "nosubs@example.com")
		_, err := storage.GetSubscriptionByUserUID(ctx, emptyUID)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestStorage_ContextCancellation(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = storage.ListHabits(ctx, uuid.NewString())
	assert.ErrorIs(t, err, context.Canceled)

	err = storage.UpdatePremium(ctx, uuid.NewString(), true, "active")
	assert.ErrorIs(t, err, context.Canceled)
}
