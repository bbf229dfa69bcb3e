package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark keys
	KeyPrefixBookmark = "flare:bookmark:"
	// KeyPrefixOwner is the prefix for per-owner bookmark id sets
	KeyPrefixOwner = "flare:owner:"
)

// BookmarkKey returns the Redis key holding a bookmark
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// OwnerKey returns the Redis key of the set of an owner's bookmark ids
func OwnerKey(ownerID string) string {
	return KeyPrefixOwner + ownerID + ":bookmarks"
}
