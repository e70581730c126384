// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// A Session is one continuous transcript: an ordered, append-only list of
// Messages exchanged with the assistant service, titled after its first user
// message. Message content is a tagged variant (plain text or a multi-image
// assistant reply) rather than a duck-typed string-or-object, so every
// consumer switches on Content.Kind instead of type-sniffing.
//
// The wire and storage encoding of content is kept compatible with the
// assistant service: plain text serializes as a JSON string, image replies
// as an image_response object.
package model
