package models

import "time"

// Identity is the profile record of the person using the application.
type Identity struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	Avatar    string `json:"avatar"`
	Bio       string `json:"bio,omitempty"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
	Posts     int    `json:"posts"`
}

// IdentityPatch describes a partial identity update. Nil fields are left untouched.
type IdentityPatch struct {
	Username  *string `json:"username,omitempty"`
	FullName  *string `json:"fullName,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Followers *int    `json:"followers,omitempty"`
	Following *int    `json:"following,omitempty"`
	Posts     *int    `json:"posts,omitempty"`
}

// Apply returns a copy of identity with the patch fields merged in.
func (p IdentityPatch) Apply(identity Identity) Identity {
	if p.Username != nil {
		identity.Username = *p.Username
	}
	if p.FullName != nil {
		identity.FullName = *p.FullName
	}
	if p.Avatar != nil {
		identity.Avatar = *p.Avatar
	}
	if p.Bio != nil {
		identity.Bio = *p.Bio
	}
	if p.Followers != nil {
		identity.Followers = *p.Followers
	}
	if p.Following != nil {
		identity.Following = *p.Following
	}
	if p.Posts != nil {
		identity.Posts = *p.Posts
	}
	return identity
}

// Empty reports whether the patch changes nothing.
func (p IdentityPatch) Empty() bool {
	return p == IdentityPatch{}
}

// Author is the slice of an identity embedded into posts, comments and notifications.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	FullName string `json:"fullName,omitempty"`
}

// AuthorOf copies the authoring fields out of an identity.
func AuthorOf(identity Identity) Author {
	return Author{
		ID:       identity.ID,
		Username: identity.Username,
		Avatar:   identity.Avatar,
		FullName: identity.FullName,
	}
}

// Post is a single photo in the feed or explore grid.
type Post struct {
	ID        string    `json:"id"`
	Author    Author    `json:"user"`
	Image     string    `json:"image"`
	Caption   string    `json:"caption"`
	Likes     int       `json:"likes"`
	HasLiked  bool      `json:"hasLiked"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
	Age       string    `json:"formattedTime"`
}

// Clone returns a deep copy of the post.
func (p Post) Clone() Post {
	p.Comments = append([]Comment(nil), p.Comments...)
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	return p
}

// Comment is a reply attached to exactly one post.
type Comment struct {
	ID        string    `json:"id"`
	Author    Author    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Age       string    `json:"formattedTime"`
}

// ChatUser is the counterpart of a direct message thread.
type ChatUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Online   bool   `json:"isOnline"`
}

// Message is one entry of a chat.
type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Age       string    `json:"formattedTime"`
	Read      bool      `json:"isRead"`
}

// Chat is a direct message thread with a single counterpart.
type Chat struct {
	ID          string    `json:"id"`
	User        ChatUser  `json:"user"`
	Messages    []Message `json:"messages"`
	LastMessage *Message  `json:"lastMessage,omitempty"`
	UnreadCount int       `json:"unreadCount"`
}

// Clone returns a deep copy of the chat.
func (c Chat) Clone() Chat {
	c.Messages = append([]Message(nil), c.Messages...)
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	if c.LastMessage != nil {
		last := *c.LastMessage
		c.LastMessage = &last
	}
	return c
}

// NotificationKind tags what triggered a notification.
type NotificationKind string

const (
	NotificationLike    NotificationKind = "like"
	NotificationComment NotificationKind = "comment"
	NotificationFollow  NotificationKind = "follow"
	NotificationMention NotificationKind = "mention"
	NotificationTag     NotificationKind = "tag"
)

// Valid reports whether k is one of the known kinds.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationLike, NotificationComment, NotificationFollow, NotificationMention, NotificationTag:
		return true
	}
	return false
}

// Notification is an activity alert for the current user.
type Notification struct {
	ID        string           `json:"id"`
	Actor     Author           `json:"user"`
	Kind      NotificationKind `json:"type"`
	Content   string           `json:"content,omitempty"`
	PostID    string           `json:"postId,omitempty"`
	PostImage string           `json:"postImage,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	Age       string           `json:"formattedTime"`
	Read      bool             `json:"isRead"`
}
