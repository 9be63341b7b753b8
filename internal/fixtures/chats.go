package fixtures

import (
	"time"

	"github.com/picshare/backend/internal/models"
)

var chatUsers = []models.ChatUser{
	{ID: "2", Username: "Akshat", Avatar: "https://images.pexels.com/photos/774909/pexels-photo-774909.jpeg?auto=compress&cs=tinysrgb&w=300", Online: true},
	{ID: "3", Username: "Akash", Avatar: "https://images.pexels.com/photos/91227/pexels-photo-91227.jpeg?auto=compress&cs=tinysrgb&w=300", Online: false},
	{ID: "4", Username: "Vedant", Avatar: "https://images.pexels.com/photos/1036623/pexels-photo-1036623.jpeg?auto=compress&cs=tinysrgb&w=300", Online: true},
	{ID: "5", Username: "Rohan", Avatar: "https://images.pexels.com/photos/614810/pexels-photo-614810.jpeg?auto=compress&cs=tinysrgb&w=300", Online: false},
}

// Chats returns the direct message seed. LastMessage and age labels are left
// for the conversation store to derive.
func Chats(now time.Time) []models.Chat {
	ms := func(d int64) time.Time { return now.Add(-time.Duration(d) * time.Millisecond) }
	msg := func(id, sender, text string, ago int64, read bool) models.Message {
		return models.Message{ID: id, SenderID: sender, Text: text, CreatedAt: ms(ago), Read: read}
	}

	return []models.Chat{
		{
			ID:   "chat1",
			User: chatUsers[0],
			Messages: []models.Message{
				msg("m1", chatUsers[0].ID, "Hey there!?", 3600000, true),
				msg("m2", CurrentUserID, "Hi, How are you?", 3300000, true),
				msg("m3", chatUsers[0].ID, "I am fine, what about you?", 1800000, false),
			},
			UnreadCount: 1,
		},
		{
			ID:   "chat2",
			User: chatUsers[1],
			Messages: []models.Message{
				msg("m4", CurrentUserID, "Hey Yash, did you see my latest post?", 86400000, true),
				msg("m5", chatUsers[1].ID, "Yes!", 82800000, true),
			},
		},
		{
			ID:   "chat3",
			User: chatUsers[2],
			Messages: []models.Message{
				msg("m6", chatUsers[2].ID, "Are we still meeting for coffee tomorrow?", 172800000, true),
				msg("m7", CurrentUserID, "Absolutely! 10am at the usual place?", 169200000, true),
				msg("m8", chatUsers[2].ID, "Perfect, see you then!", 165600000, true),
			},
		},
		{
			ID:   "chat4",
			User: chatUsers[3],
			Messages: []models.Message{
				msg("m9", CurrentUserID, "Hey Mike, I thought your presentation yesterday was great!", 259200000, true),
				msg("m10", chatUsers[3].ID, "Thanks! I was pretty nervous but it went well.", 255600000, true),
				msg("m11", CurrentUserID, "Not at all, you looked confident! We should collaborate on a project sometime.", 252000000, true),
				msg("m12", chatUsers[3].ID, "That would be awesome! Let's discuss it over lunch next week.", 248400000, false),
				msg("m13", chatUsers[3].ID, "How does Tuesday work for you?", 244800000, false),
			},
			UnreadCount: 2,
		},
	}
}
