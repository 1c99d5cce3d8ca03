package search

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/snapshelf/backend/internal/models"
)

func TestNewPostDocument(t *testing.T) {
	post := &models.Post{
		ID:          "p1",
		UserID:      "u1",
		Description: "Golden hour",
		Tags:        []string{"Sunset", "beach"},
		Location:    &models.Location{Name: "Ocean Beach", Address: "San Francisco"},
		Visibility:  models.VisibilityFriends,
		CreatedAt:   time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC),
		User:        &models.User{Username: "alice"},
	}

	doc := NewPostDocument(post)
	assert.Equal(t, "p1", doc.ID)
	assert.Equal(t, "alice", doc.Username)
	assert.Equal(t, []string{"sunset", "beach"}, doc.Tags)
	assert.Equal(t, "Ocean Beach San Francisco", doc.Location)
	assert.Equal(t, "friends", doc.Visibility)
	assert.Equal(t, "2024-05-01T18:30:00Z", doc.CreatedAt)
}

func TestNewPostDocumentWithoutOptionalFields(t *testing.T) {
	doc := NewPostDocument(&models.Post{ID: "p2", UserID: "u2"})
	assert.Empty(t, doc.Username)
	assert.Empty(t, doc.Location)
	assert.NotNil(t, doc.Tags)
}

func TestBuildPostQuery(t *testing.T) {
	q := BuildPostQuery("  #Sunset ", 15)
	assert.Equal(t, 15, q["size"])

	boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	should := boolQuery["should"].([]interface{})
	require.Len(t, should, 2)

	term := should[0].(map[string]interface{})["term"].(map[string]interface{})["tags"].(map[string]interface{})
	assert.Equal(t, "sunset", term["value"])

	multi := should[1].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "#Sunset", multi["query"])
}

func TestDecodeHitIDs(t *testing.T) {
	body := `{"hits":{"total":{"value":2},"hits":[{"_id":"a","_score":2.1},{"_id":"b","_score":1.0}]}}`
	ids, err := decodeHitIDs(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	_, err = decodeHitIDs(strings.NewReader("not json"))
	assert.Error(t, err)
}
