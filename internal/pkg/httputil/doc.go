// Package httputil holds the JSON request/response helpers shared by
// all HTTP handlers, so every endpoint returns the same envelopes and
// error shapes.
package httputil
