// Package remote implements the client for the capture store API: presigned
// upload locations, binary uploads, record and image-metadata creation, and
// the reference-data catalog. Failures are wrapped with the error markers the
// dispatch engine uses to decide between retry, fail, and fail-fast.
package remote
