package errors

import stderrors "errors"

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"

	// UnknownInstrumentError is returned when an order targets an instrument outside the configured set.
	UnknownInstrumentError ErrorCode = "unknown_instrument"
	// InvalidOrderError is returned when an order has a negative size, a bad price or an unknown side.
	InvalidOrderError ErrorCode = "invalid_order"

	// FeedReadError represents a failure to read the next order from a feed.
	FeedReadError ErrorCode = "feed_read_error"
	// FeedParseError represents a malformed feed row or message.
	FeedParseError ErrorCode = "feed_parse_error"
	// FeedWriteError represents a failure to persist or publish generated order flow.
	FeedWriteError ErrorCode = "feed_write_error"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
)

// String returns the code as a plain string.
func (c ErrorCode) String() string {
	return string(c)
}

// HasCode reports whether any error in err's chain is an ErrorDetails carrying code.
func HasCode(err error, code ErrorCode) bool {
	var details *ErrorDetails
	if !stderrors.As(err, &details) {
		return false
	}
	return details.Code == code.String()
}
