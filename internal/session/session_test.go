package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("returns stored credentials", func(t *testing.T) {
		sess := New("id")
		sess.SetToken(Credentials{AccessToken: "T", RefreshToken: "R", ExpiresAt: exp})

		creds, ok := sess.Token()
		require.True(t, ok)
		assert.Equal(t, "T", creds.AccessToken)
		assert.Equal(t, "R", creds.RefreshToken)
		assert.True(t, creds.ExpiresAt.Equal(exp))
		assert.True(t, sess.Modified())
	})

	t.Run("token without expiry is unauthenticated", func(t *testing.T) {
		sess := Restore("id", Values{AccessToken: "T"})
		_, ok := sess.Token()
		assert.False(t, ok)
	})

	t.Run("unparseable expiry is unauthenticated", func(t *testing.T) {
		sess := Restore("id", Values{AccessToken: "T", ExpiresAt: "tomorrow"})
		_, ok := sess.Token()
		assert.False(t, ok)
	})

	t.Run("expiry without token is unauthenticated", func(t *testing.T) {
		sess := Restore("id", Values{ExpiresAt: exp.Format(time.RFC3339)})
		_, ok := sess.Token()
		assert.False(t, ok)
	})
}

func TestTakeReturnURL(t *testing.T) {
	sess := Restore("id", Values{ReturnURL: "/projects"})

	assert.Equal(t, "/projects", sess.TakeReturnURL())
	assert.Empty(t, sess.ReturnURL())
	assert.True(t, sess.Modified())
}

func TestClear(t *testing.T) {
	t.Run("drops every value", func(t *testing.T) {
		sess := Restore("id", Values{AccessToken: "T", UserEmail: "a@b.c", DenialReason: "no"})
		sess.Clear()
		assert.True(t, sess.IsEmpty())
		assert.True(t, sess.Modified())
	})

	t.Run("clearing an empty session does not mark it modified", func(t *testing.T) {
		sess := New("id")
		sess.Clear()
		assert.False(t, sess.Modified())
	})
}

func TestRegenerate(t *testing.T) {
	sess := Restore("sid", Values{AccessToken: "T"})
	assert.False(t, sess.Regenerated())

	sess.Regenerate()
	assert.True(t, sess.Regenerated())
	assert.True(t, sess.Modified())
	assert.Equal(t, "sid", sess.ID())

	old, stored := sess.rotate("sid-2")
	assert.Equal(t, "sid", old)
	assert.True(t, stored)
	assert.Equal(t, "sid-2", sess.ID())
	assert.True(t, sess.IsNew())
	assert.Equal(t, "T", sess.Values().AccessToken)
}
