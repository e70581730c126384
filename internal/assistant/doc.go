// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant provides the HTTP client for the e-waste assistant
// service.
//
// The service exposes three endpoints: a language listing, a chat endpoint
// whose replies are either plain text or a multi-image payload, and an
// image-classification endpoint taking a multipart upload. Replies are
// parsed into a tagged Reply value at this boundary so nothing downstream
// type-sniffs response payloads.
package assistant
