package models

import (
	"testing"
	"time"
)

func TestIdentityPatchApply(t *testing.T) {
	base := Identity{ID: "1", Username: "johndoe", FullName: "John Doe", Bio: "old", Posts: 24}
	bio := "x"

	got := IdentityPatch{Bio: &bio}.Apply(base)

	if got.Bio != "x" {
		t.Fatalf("expected bio x got %q", got.Bio)
	}
	got.Bio = base.Bio
	if got != base {
		t.Fatalf("expected other fields unchanged got %+v", got)
	}
}

func TestIdentityPatchEmpty(t *testing.T) {
	if !(IdentityPatch{}).Empty() {
		t.Fatal("expected zero patch to be empty")
	}
	posts := 3
	if (IdentityPatch{Posts: &posts}).Empty() {
		t.Fatal("expected patch with posts to be non-empty")
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if got := Age(now.Add(-10*time.Second), now); got != JustNow {
		t.Fatalf("expected %q got %q", JustNow, got)
	}
	if got := Age(now.Add(-2*time.Hour), now); got != "2 hours ago" {
		t.Fatalf("expected 2 hours ago got %q", got)
	}
	if got := Age(now.Add(-48*time.Hour), now); got != "2 days ago" {
		t.Fatalf("expected 2 days ago got %q", got)
	}
}

func TestPostCloneIsDeep(t *testing.T) {
	post := Post{ID: "1", Comments: []Comment{{ID: "c1"}}}
	clone := post.Clone()
	clone.Comments[0].Text = "changed"
	if post.Comments[0].Text != "" {
		t.Fatal("expected clone to not alias comments")
	}
}

func TestNotificationKindValid(t *testing.T) {
	for _, k := range []NotificationKind{NotificationLike, NotificationComment, NotificationFollow, NotificationMention, NotificationTag} {
		if !k.Valid() {
			t.Fatalf("expected %q to be valid", k)
		}
	}
	if NotificationKind("poke").Valid() {
		t.Fatal("expected unknown kind to be invalid")
	}
}
