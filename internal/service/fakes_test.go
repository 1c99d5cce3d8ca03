package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/storage"
)

type fakeImageStore struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	deleteErr error
}

func (f *fakeImageStore) UploadImage(ctx context.Context, data []byte, userID, filename string) (*storage.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("images/2024/05/%s/%d.jpg", userID, len(f.uploads)+1)
	f.uploads = append(f.uploads, key)
	return &storage.UploadResult{
		Key:  key,
		URL:  storage.PublicURL("https://cdn.example.com", key),
		Size: int64(len(data)),
	}, nil
}

func (f *fakeImageStore) DeleteFile(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

type fakeIndexer struct {
	indexed  map[string]*models.Post
	deleted  []string
	results  []string
	failWith error
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: map[string]*models.Post{}}
}

func (f *fakeIndexer) IndexPost(ctx context.Context, post *models.Post) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.indexed[post.ID] = post
	return nil
}

func (f *fakeIndexer) DeletePost(ctx context.Context, postID string) error {
	f.deleted = append(f.deleted, postID)
	delete(f.indexed, postID)
	return f.failWith
}

func (f *fakeIndexer) SearchPosts(ctx context.Context, query string, limit int) ([]string, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.results, nil
}

type fakeObserver struct {
	mu      sync.Mutex
	changed []string
	deleted []string
}

func (f *fakeObserver) PostChanged(postID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = append(f.changed, postID)
}

func (f *fakeObserver) PostDeleted(postID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, postID)
}

// deferredRunner holds jobs until flush, or refuses them when full is set.
type deferredRunner struct {
	names []string
	jobs  []func(ctx context.Context) error
	full  bool
}

func (r *deferredRunner) Submit(name string, fn func(ctx context.Context) error) error {
	if r.full {
		return errors.New("queue full")
	}
	r.names = append(r.names, name)
	r.jobs = append(r.jobs, fn)
	return nil
}

func (r *deferredRunner) flush() {
	for _, fn := range r.jobs {
		_ = fn(context.Background())
	}
	r.jobs = nil
}

var errBackendDown = errors.New("backend down")
