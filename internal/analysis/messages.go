package analysis

import "net/http"

// UserMessage returns the copy shown to end users for a failure status.
func UserMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "The food analysis service is not configured correctly. Please contact the administrator."
	case http.StatusNotFound:
		return "The food analysis model is currently unavailable. Please contact the administrator."
	case http.StatusTooManyRequests:
		return "Too many analysis requests right now. Please try again in a moment or enter your meal manually."
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "The food analysis service is busy. Please try again shortly."
	default:
		return "We couldn't analyze this photo. Please try again or enter your meal manually."
	}
}
