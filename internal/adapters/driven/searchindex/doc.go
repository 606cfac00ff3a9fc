// Package searchindex implements the index transport over the search
// service's REST interface. It owns the endpoint, authentication,
// request throttling, and per-request timeouts; callers decide paths,
// API versions, and what a status code means.
package searchindex
