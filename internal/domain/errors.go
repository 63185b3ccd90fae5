package domain

import "errors"

var (
	// ErrUnknownTask signals a task name outside the closed task set.
	ErrUnknownTask = errors.New("unknown task")
	// ErrMissingInput signals a required task input that was not configured.
	ErrMissingInput = errors.New("missing required input")
	// ErrQueryNotReady signals a read of the query slot before the embed step wrote it.
	ErrQueryNotReady = errors.New("no query artifact: run the embed_query step first")
	// ErrResultsNotReady signals a read of the results slot before the query step wrote it.
	ErrResultsNotReady = errors.New("no result artifact: run the query_similarity step first")
	// ErrStoreUnreachable signals a failed reachability probe against the vector store.
	ErrStoreUnreachable = errors.New("vector store unreachable")
	// ErrCollectionNotFound signals an operation against a collection that does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrDimensionMismatch signals a vector whose length differs from the collection's.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
