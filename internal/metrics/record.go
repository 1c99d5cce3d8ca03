package metrics

// RecordCacheHit records a cache hit for cacheName
func RecordCacheHit(cacheName string) {
	Get().CacheHitsTotal.WithLabelValues(cacheName).Inc()
}

// RecordCacheMiss records a cache miss for cacheName
func RecordCacheMiss(cacheName string) {
	Get().CacheMissesTotal.WithLabelValues(cacheName).Inc()
}

// RecordRateLimitExceeded records a rejected request
func RecordRateLimitExceeded(endpoint, method string) {
	Get().RateLimitExceededTotal.WithLabelValues(endpoint, method).Inc()
}

// RecordLikeToggle records the direction a like toggle ended in.
func RecordLikeToggle(liked bool) {
	direction := "unlike"
	if liked {
		direction = "like"
	}
	Get().LikesToggledTotal.WithLabelValues(direction).Inc()
}

// RecordComment records a comment add or delete.
func RecordComment(action string) {
	Get().CommentsTotal.WithLabelValues(action).Inc()
}

// RecordCollectionOperation records a collection mutation.
func RecordCollectionOperation(operation string) {
	Get().CollectionOperationsTotal.WithLabelValues(operation).Inc()
}

// RecordNotification records one dispatch attempt.
func RecordNotification(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	Get().NotificationsDispatched.WithLabelValues(kind, status).Inc()
}

// RecordBlobDeleteFailure records an image that could not be removed from storage.
func RecordBlobDeleteFailure() {
	Get().BlobDeleteFailuresTotal.Inc()
}

// RecordBackgroundJob records one finished background job. status is
// success, error or dropped.
func RecordBackgroundJob(job, status string) {
	Get().BackgroundJobsTotal.WithLabelValues(job, status).Inc()
}

// RecordError records an error by type and endpoint
func RecordError(errorType, endpoint string) {
	Get().ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}
