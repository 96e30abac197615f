package main

// ingestRequest mirrors the request body the original daily trigger
// posts: the fetch window as real-valued epoch seconds and an optional
// destination bucket.
type ingestRequest struct {
	SlackToken string  `json:"slack_token,omitempty"`
	OldestUT   float64 `json:"oldest_ut"`
	LatestUT   float64 `json:"latest_ut"`
	BucketName string  `json:"bucket_name,omitempty"`
}
