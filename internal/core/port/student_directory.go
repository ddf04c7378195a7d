package port

import "context"

// StudentDirectory exposes read-only student profile attributes maintained by
// the resource controllers. Login step B attaches these to the response for
// student accounts.
type StudentDirectory interface {
	StudentProfile(ctx context.Context, accountID int64) (map[string]any, error)
}
