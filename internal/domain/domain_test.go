// File: internal/domain/domain_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageType_Valid(t *testing.T) {
	assert.True(t, MessageTypeText.Valid())
	assert.True(t, MessageTypeVoice.Valid())
	assert.True(t, MessageTypeImage.Valid())
	assert.True(t, MessageTypeDocument.Valid())
	assert.False(t, MessageType("sticker").Valid())
	assert.False(t, MessageType("").Valid())
}

func TestMessageType_RequiresMedia(t *testing.T) {
	assert.False(t, MessageTypeText.RequiresMedia())
	assert.False(t, MessageTypeVoice.RequiresMedia())
	assert.True(t, MessageTypeImage.RequiresMedia())
	assert.True(t, MessageTypeDocument.RequiresMedia())
}

func TestChat_PeerAndMembership(t *testing.T) {
	c := Chat{ID: "chat-1", ParticipantA: "user-a", ParticipantB: "user-b"}

	assert.Equal(t, "user-b", c.Peer("user-a"))
	assert.Equal(t, "user-a", c.Peer("user-b"))
	assert.Empty(t, c.Peer("user-c"))

	assert.True(t, c.HasParticipant("user-a"))
	assert.False(t, c.HasParticipant("user-c"))
	assert.False(t, c.IsBotChat())
}

func TestChat_IsBotChat(t *testing.T) {
	c := Chat{ParticipantA: "user-a", ParticipantB: BotParticipantID}
	assert.True(t, c.IsBotChat())
	assert.Equal(t, BotParticipantID, c.Peer("user-a"))
}

func TestMessage_FromBot(t *testing.T) {
	assert.True(t, (&Message{SenderID: BotParticipantID}).FromBot())
	assert.False(t, (&Message{SenderID: "user-a"}).FromBot())
}

func TestUser_PasswordLifecycle(t *testing.T) {
	u := User{}
	require.Error(t, u.HashPassword("short"))

	require.NoError(t, u.HashPassword("long-enough-password"))
	assert.NoError(t, u.ValidatePassword("long-enough-password"))
	assert.Error(t, u.ValidatePassword("wrong-password"))
}

func TestUser_IsValid(t *testing.T) {
	valid := User{FullName: "Asha Patil", Email: "asha@example.com", Region: "Maharashtra"}
	assert.NoError(t, valid.IsValid())

	missingName := valid
	missingName.FullName = "  "
	assert.Error(t, missingName.IsValid())

	badEmail := valid
	badEmail.Email = "not-an-email"
	assert.Error(t, badEmail.IsValid())

	missingRegion := valid
	missingRegion.Region = ""
	assert.Error(t, missingRegion.IsValid())
}

func TestCropList_RoundTrip(t *testing.T) {
	v, err := CropList{"rice", "wheat"}.Value()
	require.NoError(t, err)

	var scanned CropList
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, CropList{"rice", "wheat"}, scanned)

	var empty CropList
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)
}
