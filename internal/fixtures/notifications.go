package fixtures

import (
	"time"

	"github.com/picshare/backend/internal/models"
)

// Notifications returns the activity seed with timestamps relative to now.
func Notifications(now time.Time) []models.Notification {
	return []models.Notification{
		{ID: "n1", Actor: author("janedoe"), Kind: models.NotificationLike, PostID: "1", PostImage: photo("2662116"), CreatedAt: now.Add(-time.Hour)},
		{ID: "n2", Actor: author("alexsmith"), Kind: models.NotificationComment, Content: "Great photo!", PostID: "2", PostImage: photo("376464"), CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "n3", Actor: author("sarahparker"), Kind: models.NotificationFollow, CreatedAt: now.Add(-24 * time.Hour), Read: true},
		{ID: "n4", Actor: author("johndoe"), Kind: models.NotificationMention, Content: "Check out this amazing sunset!", PostID: "3", PostImage: photo("3098970"), CreatedAt: now.Add(-48 * time.Hour)},
	}
}
