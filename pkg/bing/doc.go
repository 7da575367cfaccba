// Package bing is a minimal client for the Bing Image Search v7 API.
//
// One call to FetchPage is one GET request. The client never retries; any
// failure is returned as an ApiError for the caller to act on.
//
//	client := bing.NewClient(nil, config.DefaultEndpoint, key, log)
//	page, err := client.FetchPage(ctx, "nogizaka46", 150, 0)
package bing
