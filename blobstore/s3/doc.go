// Package s3 stores cache entries in Amazon S3.
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("trie-cache/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	mgr := cache.NewManager(store, local)
//
// Entries below the part size are sent in one PutObject request carrying a
// CRC32C checksum. Larger entries go through the s3 manager as multipart
// uploads. WithEndpoint targets S3-compatible services with path-style
// addressing.
package s3
