// Package httpapi exposes catalog search and lookups over HTTP using gin.
package httpapi
