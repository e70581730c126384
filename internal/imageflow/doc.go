// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package imageflow drives the select/preview/submit cycle for e-waste
// image analysis.
//
// The flow is a three-state machine: idle until the user selects an
// image, previewing while the selected image awaits confirmation, and
// submitting while the upload is in flight. Selection sniffs the file's
// content rather than trusting its extension; non-image files are
// rejected without leaving idle. A confirmed upload produces exactly two
// transcript messages, the user's image followed by the assistant's
// analysis, and the staged image bytes are released only after both are
// recorded.
package imageflow
