// Package readcache holds the three shadow entities the read path keeps in
// the cache store: the view counter, the like-membership set and the
// serialized detail payload. All three key off the same post ID but have
// independent lifecycles and expiry clocks; nothing links them
// transactionally.
package readcache

import (
	"fmt"
	"strconv"
)

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Key layout is part of the wire contract; existing deployments depend on
// these exact shapes.
func viewCountKey(postID string) string {
	return fmt.Sprintf("post:%s:view_count", postID)
}

func likeMemberKey(postID string) string {
	return fmt.Sprintf("post:%s:like_member", postID)
}

func detailKey(postID string) string {
	return fmt.Sprintf("post:detail:%s", postID)
}
