package gerr

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	OrderNotFound    = status.Error(codes.NotFound, "order not found")
	StoreWriteFailed = status.Error(codes.Internal, "store write failed")
	InvalidDateRange = status.Error(codes.InvalidArgument, "invalid date range: start is after end")

	BadRequest      = status.Error(codes.InvalidArgument, "bad request")
	RateLimited     = status.Error(codes.ResourceExhausted, "too many requests")
	Unauthenticated = status.Error(codes.Unauthenticated, "unauthenticated")
	AlreadyExists   = status.Error(codes.AlreadyExists, "already exists")
)

// Code returns the code of the first taxonomy error wrapped in err.
func Code(err error) codes.Code {
	for _, e := range []error{OrderNotFound, StoreWriteFailed, InvalidDateRange, BadRequest, RateLimited, Unauthenticated, AlreadyExists} {
		if errors.Is(err, e) {
			return status.Code(e)
		}
	}
	return codes.Unknown
}

// HTTPStatus maps err onto an http status code.
func HTTPStatus(err error) int {
	switch Code(err) {
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.AlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
