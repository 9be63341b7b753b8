// Package fixtures holds the demo data every store is seeded from.
package fixtures

import (
	"sort"

	"github.com/picshare/backend/internal/models"
)

// CurrentUserID is the sender id used for messages written by the signed-in user.
const CurrentUserID = "1"

// DemoIdentity is the identity every login resolves to.
func DemoIdentity() models.Identity {
	return models.Identity{
		ID:        CurrentUserID,
		Username:  "johndoe",
		FullName:  "John Doe",
		Avatar:    "https://images.pexels.com/photos/220453/pexels-photo-220453.jpeg?auto=compress&cs=tinysrgb&w=300",
		Bio:       "Photography enthusiast | Travel lover | Web developer",
		Followers: 1024,
		Following: 342,
		Posts:     24,
	}
}

var demoUsers = map[string]models.Identity{
	"johndoe": {
		ID:        "2",
		Username:  "shivansh",
		FullName:  "Shivansh Tripathi",
		Avatar:    "https://images.pexels.com/photos/2379004/pexels-photo-2379004.jpeg?auto=compress&cs=tinysrgb&w=300",
		Bio:       "Photography enthusiast | Travel lover",
		Followers: 1243,
		Following: 567,
		Posts:     42,
	},
	"janedoe": {
		ID:        "3",
		Username:  "akshat",
		FullName:  "Akshat Kalra",
		Avatar:    "https://images.pexels.com/photos/774909/pexels-photo-774909.jpeg?auto=compress&cs=tinysrgb&w=300",
		Bio:       "Fashion blogger | Coffee addict",
		Followers: 876,
		Following: 432,
		Posts:     28,
	},
	"mikebrown": {
		ID:        "4",
		Username:  "akash",
		FullName:  "Akash Ghosh",
		Avatar:    "https://images.pexels.com/photos/1222271/pexels-photo-1222271.jpeg?auto=compress&cs=tinysrgb&w=300",
		Bio:       "Fitness coach | Nature lover",
		Followers: 2156,
		Following: 789,
		Posts:     65,
	},
	"sarahparker": {
		ID:        "5",
		Username:  "rohan",
		FullName:  "Rohan George",
		Avatar:    "https://images.pexels.com/photos/1036623/pexels-photo-1036623.jpeg?auto=compress&cs=tinysrgb&w=300",
		Bio:       "Travel blogger | Adventure seeker",
		Followers: 1543,
		Following: 678,
		Posts:     89,
	},
	"alexsmith": {
		ID:        "6",
		Username:  "riya",
		FullName:  "Riya Sharma",
		Avatar:    "https://images.pexels.com/photos/91227/pexels-photo-91227.jpeg?auto=compress&cs=tinysrgb&w=300",
		Bio:       "Tech enthusiast | Coffee lover",
		Followers: 987,
		Following: 543,
		Posts:     34,
	},
}

// User returns the demo user registered under key.
func User(key string) (models.Identity, bool) {
	u, ok := demoUsers[key]
	return u, ok
}

// UserByUsername finds a demo user by its display username.
func UserByUsername(username string) (models.Identity, bool) {
	for _, key := range UserKeys() {
		if u := demoUsers[key]; u.Username == username {
			return u, true
		}
	}
	return models.Identity{}, false
}

// UserKeys lists the demo user keys in a stable order.
func UserKeys() []string {
	keys := make([]string, 0, len(demoUsers))
	for k := range demoUsers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FallbackAuthor authors posts and comments when nobody is signed in.
func FallbackAuthor() models.Author {
	return author("johndoe")
}

func author(key string) models.Author {
	u := demoUsers[key]
	return models.Author{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
