// Package provider holds the translation backends and the test double
// used by the command line and the HTTP server.
package provider

import "github.com/ZaguanLabs/tlguard"

// AIProvider is the interface for AI translation backends.
// This is an alias to the main package interface for convenience.
type AIProvider = tlguard.AIProvider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = tlguard.TranslateRequest
