// Package s3 provides an S3 implementation of the blobstore.BlobStore
// interface, plus a DynamoDB-backed registry for tracking ensemble runs.
//
// Blobs are written as streaming multipart uploads so long runs never need
// to be staged on local disk, and read back through ranged GETs so cursors
// can seek without downloading whole objects.
//
// Example:
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	store := s3blob.NewStore(s3.NewFromConfig(cfg), "my-bucket", "ensembles/")
//	registry := s3blob.NewRegistry(dynamodb.NewFromConfig(cfg), "benstream-runs")
//
//	w, err := store.Create(ctx, "pa-house/run-042.ben")
//	...
package s3
