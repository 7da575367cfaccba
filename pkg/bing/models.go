package bing

// SubscriptionKeyHeader carries the API key on every search request
const SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

// searchResponse is the subset of the image search response we consume
type searchResponse struct {
	TotalEstimatedMatches *int          `json:"totalEstimatedMatches"`
	Value                 []imageResult `json:"value"`
	NextOffset            *int          `json:"nextOffset"`
}

type imageResult struct {
	ContentURL string `json:"contentUrl"`
	Name       string `json:"name,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// Page is one batch of results returned by a single search call
type Page struct {
	URLs                  []string
	NextOffset            int
	TotalEstimatedMatches int
}
