// Package http exposes the scheduling API over net/http. Handlers translate
// requests into application service calls and map service errors to status
// codes; all policy and conflict decisions live below this layer.
package http
