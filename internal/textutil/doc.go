// Package textutil shapes generated text to fit YouTube's video metadata
// limits: angle brackets are rejected by the API, titles are capped in
// characters, descriptions in bytes, and the tag list by a combined budget.
package textutil
