// Package microsoft is the HTTP transport for Microsoft Graph.
//
// This package provides:
//   - Request building with OData query options and bound operation calls
//   - Pluggable authentication (static token, refresh token, client credentials)
//   - Response envelopes discriminated into single, collection and empty bodies
//   - Paging over @odata.nextLink
//   - Graph service errors with nested inner error codes
//   - Client-side rate limiting
//   - The $metadata fetcher with a local cache file
//
// # Authentication
//
// Tokens come from the Microsoft identity platform v2.0 endpoints:
//   - Auth URL: https://login.microsoftonline.com/{tenant}/oauth2/v2.0/authorize
//   - Token URL: https://login.microsoftonline.com/{tenant}/oauth2/v2.0/token
//
// The "offline_access" scope is required for refresh tokens.
//
// # Delta Query
//
// Delta queries return @odata.deltaLink on the last page. A 410 Gone
// response indicates the delta token has expired and the query must be
// restarted.
//
// # Rate Limits
//
// Microsoft Graph allows approximately 10,000 requests per 10 minutes per app.
// Requests are paced client-side; throttled (429) responses are returned
// to the caller as errors and never retried.
package microsoft
