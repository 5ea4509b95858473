package errors

import "net/http"

// OK represents a successful operation.
var OK = Register(&Errno{
	Code:    0,
	HTTP:    http.StatusOK,
	Message: "Success",
})

// Common request errors.
var (
	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryRequest, 0),
		HTTP:    http.StatusBadRequest,
		Message: "Bad request",
	})

	// ErrInvalidParam indicates an invalid parameter.
	ErrInvalidParam = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryRequest, 1),
		HTTP:    http.StatusBadRequest,
		Message: "Invalid parameter",
	})

	// ErrUnsupportedMedia indicates an unsupported file type.
	ErrUnsupportedMedia = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryRequest, 2),
		HTTP:    http.StatusBadRequest,
		Message: "Unsupported file type",
	})

	// ErrRequestTooLarge indicates the request body is too large.
	ErrRequestTooLarge = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryRequest, 3),
		HTTP:    http.StatusRequestEntityTooLarge,
		Message: "Request entity too large",
	})
)

// Common server errors.
var (
	// ErrNotFound indicates a missing resource.
	ErrNotFound = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryNotFound, 0),
		HTTP:    http.StatusNotFound,
		Message: "Resource not found",
	})

	// ErrInternal indicates an unexpected server error.
	ErrInternal = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryInternal, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Internal server error",
	})

	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryTimeout, 0),
		HTTP:    http.StatusGatewayTimeout,
		Message: "Operation timed out",
	})

	// ErrConfiguration indicates invalid service configuration.
	ErrConfiguration = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryConfig, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Invalid configuration",
	})
)

// RAG pipeline errors.
var (
	// ErrDocumentLoad indicates a document could not be read or parsed.
	ErrDocumentLoad = Register(&Errno{
		Code:    MakeCode(ServiceRAG, CategoryRequest, 0),
		HTTP:    http.StatusBadRequest,
		Message: "Failed to load document",
	})

	// ErrEmbedding indicates the embedding provider failed.
	ErrEmbedding = Register(&Errno{
		Code:    MakeCode(ServiceRAG, CategoryNetwork, 0),
		HTTP:    http.StatusBadGateway,
		Message: "Embedding provider unavailable",
	})

	// ErrRetrieval indicates the vector store query failed.
	ErrRetrieval = Register(&Errno{
		Code:    MakeCode(ServiceRAG, CategoryInternal, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Retrieval failed",
	})

	// ErrGeneration indicates the chat provider failed.
	ErrGeneration = Register(&Errno{
		Code:    MakeCode(ServiceRAG, CategoryNetwork, 1),
		HTTP:    http.StatusBadGateway,
		Message: "Generation provider unavailable",
	})

	// ErrCache indicates a response cache failure.
	ErrCache = Register(&Errno{
		Code:    MakeCode(ServiceRAG, CategoryCache, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Response cache failure",
	})

	// ErrIndexing indicates a document could not be indexed.
	ErrIndexing = Register(&Errno{
		Code:    MakeCode(ServiceRAG, CategoryInternal, 1),
		HTTP:    http.StatusInternalServerError,
		Message: "Document indexing failed",
	})
)
