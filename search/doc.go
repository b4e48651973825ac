// Package search executes batches of research queries for the loop.
//
// A Dispatcher takes an Invocation (a phase plus up to three queries), runs
// the queries concurrently against a Provider and returns one Result per
// query in input order. Providers:
//
//   - Tavily: requires an API key, supports basic/advanced depth
//   - Brave: requires an API key via X-Subscription-Token, rate limited
//   - Static: canned results for offline runs and tests
//
// Implement Provider to add another backend:
//
//	type Provider interface {
//	    Search(ctx context.Context, query string) ([]Snippet, error)
//	}
package search
