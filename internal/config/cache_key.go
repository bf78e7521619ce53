package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ScheduleKey returns the cache key for a user's aggregated schedule
// under one query fingerprint.
func (r *CacheKeyStruct) ScheduleKey(userID int, fingerprint string) string {
	return fmt.Sprintf("schedule:%d:%s", userID, fingerprint)
}

// ScheduleCurrentQueryKey returns the key holding the fingerprint of the
// most recently started schedule query for a user (last-query-wins guard).
func (r *CacheKeyStruct) ScheduleCurrentQueryKey(userID int) string {
	return fmt.Sprintf("schedule:%d:current", userID)
}

// GroupStatsKey returns the cache key for a group's attendance rate.
func (r *CacheKeyStruct) GroupStatsKey(groupID int) string {
	return fmt.Sprintf("group:%d:stats", groupID)
}

// GroupMonitorChannel returns the Redis PubSub channel carrying live
// attendance-save events for a group.
func (r *CacheKeyStruct) GroupMonitorChannel(groupID int) string {
	return fmt.Sprintf("group:%d:monitor", groupID)
}

var CacheKey = NewCacheKeyStruct()
