package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Next       string      `json:"next,omitempty"` // originally requested path, echoed on 401 for post-login redirect
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// Unauthorized returns an error response carrying the path the client should
// come back to after logging in.
func Unauthorized(err, next string) Response {
	return Response{
		Status:     "error",
		StatusCode: 401,
		Error:      err,
		Next:       next,
	}
}
