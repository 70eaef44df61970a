// Package dynamodb provides a DynamoDB implementation of the blobstore.BlobStore
// interface.
//
// Each blob is one item. Items are limited in size by DynamoDB, so Put rejects
// blobs above the configured limit with blobstore.ErrQuotaExceeded and the
// cache manager moves them to its fallback tier.
//
// Table schema:
//   - Partition key: name (string)
//   - Attributes: data (binary), size (number)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name trieidx-cache \
//	  --attribute-definitions AttributeName=name,AttributeType=S \
//	  --key-schema AttributeName=name,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb
