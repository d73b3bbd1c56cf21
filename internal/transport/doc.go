// Package transport defines the network primitive the coordinator wraps and
// an HTTP implementation of it.
//
// Client never follows redirects: a 3xx is returned with its Location in
// Response.Redirect, so a POST-redirect-GET flow is visible to the caller.
// Every HTTP status comes back as a Response. Only failures to get one are
// errors, mapped to ErrNetworkUnavailable or ErrTimeout. CheckStatus and
// Classify turn responses and errors into the user-facing taxonomy.
package transport
