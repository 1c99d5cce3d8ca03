package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/zfogg/snapshelf/backend/internal/models"
)

// IndexPosts is the posts index name
const IndexPosts = "posts"

// Client wraps the Elasticsearch client with post indexing and search.
type Client struct {
	es *elasticsearch.Client
}

// NewClient creates a new Elasticsearch client and verifies the connection.
func NewClient(esURL string) (*Client, error) {
	if esURL == "" {
		esURL = "http://localhost:9200"
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	res.Body.Close()

	return &Client{es: es}, nil
}

// InitializeIndices creates the posts index with its mapping if missing.
func (c *Client) InitializeIndices(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{IndexPosts}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	mappingJSON, err := json.Marshal(postsMapping())
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res, err = c.es.Indices.Create(IndexPosts,
		c.es.Indices.Create.WithBody(bytes.NewReader(mappingJSON)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("creating index", res.Status(), res.Body)
	}
	return nil
}

// IndexPost indexes a post document for search
func (c *Client) IndexPost(ctx context.Context, post *models.Post) error {
	body, err := json.Marshal(NewPostDocument(post))
	if err != nil {
		return fmt.Errorf("failed to marshal post document: %w", err)
	}

	res, err := c.es.Index(IndexPosts, bytes.NewReader(body),
		c.es.Index.WithDocumentID(post.ID),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index post: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("indexing post", res.Status(), res.Body)
	}
	return nil
}

// Ping checks that the cluster answers.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to reach Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("Elasticsearch returned %s", res.Status())
	}
	return nil
}

// DeletePost deletes a post document from the search index
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	res, err := c.es.Delete(IndexPosts, postID, c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	defer res.Body.Close()

	// 404 is OK - document doesn't exist
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("deleting post", res.Status(), res.Body)
	}
	return nil
}

// SearchPosts returns the IDs of posts matching query, best match first.
func (c *Client) SearchPosts(ctx context.Context, query string, limit int) ([]string, error) {
	queryJSON, err := json.Marshal(BuildPostQuery(query, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(IndexPosts),
		c.es.Search.WithBody(bytes.NewReader(queryJSON)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("searching posts", res.Status(), res.Body)
	}
	return decodeHitIDs(res.Body)
}

func decodeHitIDs(body io.Reader) ([]string, error) {
	var searchResp struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]string, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func responseError(action, status string, body io.Reader) error {
	var errResp map[string]interface{}
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return fmt.Errorf("error response [%s]", status)
	}
	return fmt.Errorf("error %s: [%s] %v", action, status, errResp["error"])
}
