package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Every tag in a closed set must map to a display label.
func TestLabelsAreTotal(t *testing.T) {
	for _, s := range Steps() {
		assert.True(t, s.Valid())
		assert.NotEqual(t, string(s), s.Label(), "step %s", s)
	}
	for _, s := range AccountStatuses() {
		assert.True(t, s.Valid())
		assert.NotEqual(t, string(s), s.Label(), "status %s", s)
	}
	for _, c := range DocumentCategories() {
		assert.True(t, c.Valid())
		assert.NotEqual(t, string(c), c.Label(), "category %s", c)
	}
	for _, k := range PartyKinds() {
		assert.True(t, k.Valid())
		assert.NotEqual(t, string(k), k.Label(), "kind %s", k)
	}
	for _, r := range Roles() {
		assert.True(t, r.Valid())
		assert.NotEqual(t, string(r), r.Label(), "role %s", r)
	}
	for _, n := range NotificationTypes() {
		assert.True(t, n.Valid())
		assert.NotEqual(t, string(n), n.Label(), "notification type %s", n)
	}
}

func TestNotificationValidate(t *testing.T) {
	uid := "user-1"
	role := RoleMaster

	n := Notification{Type: NotificationArchiveRequest}
	assert.ErrorIs(t, n.Validate(), ErrNotificationAddressee)

	n.RecipientID, n.TargetRole = &uid, &role
	assert.ErrorIs(t, n.Validate(), ErrNotificationAddressee)

	n.RecipientID = nil
	assert.NoError(t, n.Validate())

	n.Type = "unknown"
	assert.Error(t, n.Validate())
}

func TestStepOrder(t *testing.T) {
	steps := Steps()
	for i := 1; i < len(steps); i++ {
		assert.True(t, steps[i-1].Before(steps[i]))
		assert.False(t, steps[i].Before(steps[i-1]))
	}
}
