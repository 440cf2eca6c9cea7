package cache

// BoltDB bucket names
const (
	BucketLabels  = "labels"  // {label} -> empty, in canonical order
	BucketItems   = "items"   // {item} -> []Label
	BucketSkipped = "skipped" // {label} -> SkippedLabel
	BucketMeta    = "meta"    // schema_version, fingerprint, created_at

	// Meta keys
	KeySchemaVersion = "schema_version"
	KeyFingerprint   = "fingerprint"
	KeyCreatedAt     = "created_at"
)

// SchemaVersion is bumped whenever the snapshot layout changes
const SchemaVersion uint32 = 1

// AllBuckets returns all bucket names for initialization
func AllBuckets() []string {
	return []string{
		BucketLabels,
		BucketItems,
		BucketSkipped,
		BucketMeta,
	}
}
