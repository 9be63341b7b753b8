package fixtures

import (
	"testing"
	"time"
)

func TestFeedSeedMatchesDemo(t *testing.T) {
	posts := FeedPosts(time.Now())
	if len(posts) != 3 {
		t.Fatalf("expected 3 feed posts got %d", len(posts))
	}
	if posts[0].ID != "1" || posts[0].Likes != 124 || posts[0].HasLiked {
		t.Fatalf("unexpected first post %+v", posts[0])
	}
	if len(posts[2].Comments) != 0 {
		t.Fatalf("expected post 3 to have no comments")
	}
}

func TestChatSeedUnreadCountsMatchMessages(t *testing.T) {
	for _, chat := range Chats(time.Now()) {
		unread := 0
		for _, m := range chat.Messages {
			if !m.Read {
				unread++
			}
		}
		if unread != chat.UnreadCount {
			t.Fatalf("chat %s: expected unread %d got %d", chat.ID, chat.UnreadCount, unread)
		}
	}
}

func TestNotificationSeedKinds(t *testing.T) {
	for _, n := range Notifications(time.Now()) {
		if !n.Kind.Valid() {
			t.Fatalf("notification %s has invalid kind %q", n.ID, n.Kind)
		}
	}
}

func TestUserByUsername(t *testing.T) {
	u, ok := UserByUsername("akash")
	if !ok || u.ID != "4" {
		t.Fatalf("expected akash with id 4 got %+v ok=%v", u, ok)
	}
	if _, ok := UserByUsername("nobody"); ok {
		t.Fatal("expected unknown username to be missing")
	}
}

func TestFallbackAuthor(t *testing.T) {
	a := FallbackAuthor()
	if a.ID != "2" || a.Username != "shivansh" {
		t.Fatalf("unexpected fallback author %+v", a)
	}
}
