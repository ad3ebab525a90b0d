// Package youtube uploads finished recordings through the YouTube Data API v3
// using a stored OAuth refresh token.
//
// Uploads use the resumable chunked protocol and are retried a bounded number
// of times with exponential backoff when the failure looks transient
// (network errors, 429, 5xx). The file is rewound before every attempt.
// Exhausted retries, permanent rejections, and responses without a video id
// surface as *UploadError.
package youtube
