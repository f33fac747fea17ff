package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler. An empty Pattern
// matches the group prefix itself.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
