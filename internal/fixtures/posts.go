package fixtures

import (
	"time"

	"github.com/picshare/backend/internal/models"
)

const pexels = "?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1"

func photo(id string) string {
	return "https://images.pexels.com/photos/" + id + "/pexels-photo-" + id + ".jpeg" + pexels
}

// FeedPosts returns the home feed seed with timestamps relative to now.
func FeedPosts(now time.Time) []models.Post {
	return []models.Post{
		{
			ID:       "1",
			Author:   author("johndoe"),
			Image:    photo("2662116"),
			Caption:  "Beautiful sunset at the beach! 🌅 #sunset #beach #summer",
			Likes:    124,
			HasLiked: false,
			Comments: []models.Comment{
				{ID: "c1", Author: author("janedoe"), Text: "Amazing view! Where is this?", CreatedAt: now.Add(-time.Hour)},
			},
			CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID:       "2",
			Author:   author("janedoe"),
			Image:    photo("376464"),
			Caption:  "Breakfast of champions 🍳 #foodie #breakfast",
			Likes:    87,
			HasLiked: true,
			Comments: []models.Comment{
				{ID: "c2", Author: author("johndoe"), Text: "Looks delicious!", CreatedAt: now.Add(-30 * time.Minute)},
				{ID: "c3", Author: author("mikebrown"), Text: "I want the recipe!", CreatedAt: now.Add(-15 * time.Minute)},
			},
			CreatedAt: now.Add(-90 * time.Minute),
		},
		{
			ID:        "3",
			Author:    author("mikebrown"),
			Image:     photo("3098970"),
			Caption:   "Working from my favorite café today ☕ #worklife #remotework",
			Likes:     56,
			Comments:  []models.Comment{},
			CreatedAt: now.Add(-3 * time.Hour),
		},
	}
}

// ExplorePosts returns the explore grid seed with timestamps relative to now.
func ExplorePosts(now time.Time) []models.Post {
	day := 24 * time.Hour
	return []models.Post{
		{ID: "e1", Author: author("mikebrown"), Image: photo("3225529"), Caption: "Mountain adventure #hiking #nature", Likes: 324, Comments: []models.Comment{}, CreatedAt: now.Add(-day)},
		{ID: "e2", Author: author("sarahparker"), Image: photo("2253275"), Caption: "City lights 🌃 #nightphotography", Likes: 218, Comments: []models.Comment{}, CreatedAt: now.Add(-2 * day)},
		{ID: "e3", Author: author("janedoe"), Image: photo("2253643"), Caption: "Perfect day for a picnic 🧺 #weekend", Likes: 189, Comments: []models.Comment{}, CreatedAt: now.Add(-3 * day)},
		{ID: "e4", Author: author("johndoe"), Image: photo("2277653"), Caption: "Coffee time ☕ #coffeelover", Likes: 145, Comments: []models.Comment{}, CreatedAt: now.Add(-4 * day)},
		{ID: "e5", Author: author("sarahparker"), Image: photo("2263436"), Caption: "Architecture photography 📷 #architecture", Likes: 278, Comments: []models.Comment{}, CreatedAt: now.Add(-5 * day)},
		{ID: "e6", Author: author("mikebrown"), Image: photo("2258536"), Caption: "Beach day 🏖️ #summer", Likes: 312, Comments: []models.Comment{}, CreatedAt: now.Add(-6 * day)},
	}
}
