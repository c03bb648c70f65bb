package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are reachable without credentials.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
}

// AuthSkipper matches on the route path, so it must run after routing.
func AuthSkipper(c echo.Context) bool {
	return IsPublicPath(c.Path())
}

// IsPublicPath reports whether a route path bypasses authentication.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
