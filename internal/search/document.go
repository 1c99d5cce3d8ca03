package search

import (
	"strings"
	"time"

	"github.com/zfogg/snapshelf/backend/internal/models"
)

// PostDocument is the indexed form of a post.
type PostDocument struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Username    string   `json:"username,omitempty"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location,omitempty"`
	Visibility  string   `json:"visibility"`
	CreatedAt   string   `json:"created_at"`
}

// NewPostDocument converts a post into its search document.
func NewPostDocument(post *models.Post) PostDocument {
	doc := PostDocument{
		ID:          post.ID,
		UserID:      post.UserID,
		Description: post.Description,
		Tags:        make([]string, 0, len(post.Tags)),
		Visibility:  string(post.Visibility),
		CreatedAt:   post.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, tag := range post.Tags {
		doc.Tags = append(doc.Tags, strings.ToLower(tag))
	}
	if post.User != nil {
		doc.Username = post.User.Username
	}
	if post.Location != nil {
		doc.Location = strings.TrimSpace(post.Location.Name + " " + post.Location.Address)
	}
	return doc
}

func postsMapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":          map[string]interface{}{"type": "keyword"},
				"user_id":     map[string]interface{}{"type": "keyword"},
				"username":    map[string]interface{}{"type": "keyword"},
				"description": map[string]interface{}{"type": "text", "analyzer": "standard"},
				"tags":        map[string]interface{}{"type": "keyword"},
				"location":    map[string]interface{}{"type": "text", "analyzer": "standard"},
				"visibility":  map[string]interface{}{"type": "keyword"},
				"created_at":  map[string]interface{}{"type": "date"},
			},
		},
	}
}

// BuildPostQuery builds the search body for a free-text post query.
// Tag matches rank above description and location matches.
func BuildPostQuery(query string, limit int) map[string]interface{} {
	query = strings.TrimSpace(query)
	return map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{
							"tags": map[string]interface{}{
								"value": strings.ToLower(strings.TrimPrefix(query, "#")),
								"boost": 3.0,
							},
						},
					},
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":     query,
							"fields":    []string{"description^2", "location", "username"},
							"fuzziness": "AUTO",
						},
					},
				},
				"minimum_should_match": 1,
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}
