// Package transport builds the authenticated HTTP client used to talk to the
// BitSight REST API and classifies every failure before a caller sees it.
//
// # Building
//
// Build validates the configuration synchronously, before any network call:
//   - the base URL must be non-empty with an http or https scheme and a host
//   - a proxy URL, when present, must have an http or https scheme and a host
//   - proxy username and password come as a pair, and only with a proxy URL
//
// Violations return CONFIG_INVALID or CONFIG_CONFLICT errors.
//
// # Authentication
//
// Every request uses HTTP Basic auth with the API key as the username and an
// empty password. This is fixed by the vendor.
//
// # Classification
//
// Failures are mapped to status codes in two stages. Transport failures come
// first because no HTTP status exists yet (proxy, TLS, timeout, DNS,
// connection refused, connection reset, generic connection failure). Only
// when a response arrives is the HTTP status classified: 200 is the sole
// success; 401, 403, 404, 429 and 5xx have dedicated codes; anything else is
// an unexpected response. Every failure is a *status.Error.
//
// No retries are performed here.
//
// # Pagination
//
// Collections return {"results": [...], "links": {"next": ...}} and accept
// limit and offset. Paginate follows links.next until it is absent or a page
// comes back shorter than the limit.
//
// # Usage
//
//	client, proxies, err := transport.Build(cfg, transport.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	log.Info("proxy", zap.Any("proxies", proxies.Redacted()))
//	if err := client.ValidateConnectivity(ctx); err != nil {
//	    return err
//	}
//	rows, err := client.FetchAll(ctx, "/ratings/v1/portfolio", nil)
package transport
