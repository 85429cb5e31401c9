package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func snapshotCacheKey(studentID, problemID uint) string {
	return fmt.Sprintf("coach:snapshot:%d:%d", studentID, problemID)
}

func practiceGeneratingKey(studentID, problemID uint) string {
	return fmt.Sprintf("coach:practice:generating:%d:%d", studentID, problemID)
}

func helpJobKey(studentID, problemID uint, submissionNum int) string {
	return fmt.Sprintf("coach:help:job:%d:%d:%d", studentID, problemID, submissionNum)
}

// invalidateSnapshot drops the cached student-code snapshot so the next
// fetch reflects fresh submission or practice state. Best effort.
func invalidateSnapshot(ctx context.Context, cache *redis.Client, studentID, problemID uint) {
	if cache == nil {
		return
	}
	_ = cache.Del(ctx, snapshotCacheKey(studentID, problemID)).Err()
}
