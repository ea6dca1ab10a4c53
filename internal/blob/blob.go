// Package blob provides the object storage client used for review images
// and profile pictures. Uploads return a stable public URL; the sync engines
// surface upload failures to the caller without retrying.
package blob

import (
	"context"
	"fmt"
	"io"
)

// Uploader stores a blob under a key and returns its public retrieval URL.
type Uploader interface {
	// Upload stores the blob read from r under key and returns the URL it
	// can be fetched from. Uploading to an existing key overwrites it.
	Upload(ctx context.Context, r io.Reader, key, contentType string) (string, error)
}

// ReviewImageKey builds the storage key for a review image. Keys are
// time-unique per user, so review images never collide.
func ReviewImageKey(userID string, epochMillis int64) string {
	return fmt.Sprintf("review_images/%s/%d.jpg", userID, epochMillis)
}

// ProfilePictureKey builds the storage key for a profile picture. The key is
// deterministic per user: a new upload overwrites the prior picture.
func ProfilePictureKey(uid string) string {
	return fmt.Sprintf("profile_pictures/%s.jpg", uid)
}
