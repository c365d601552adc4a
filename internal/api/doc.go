// Package api exposes memos, tags and bulk tag enrichment over HTTP. It
// decodes and validates requests, calls the service layer and maps service
// errors to status codes without leaking internal detail.
package api
