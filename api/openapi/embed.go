package openapi

import "embed"

// FS holds the versioned OpenAPI documents served by the API router.
//
//go:embed v1/*
var FS embed.FS
