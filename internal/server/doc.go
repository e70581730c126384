// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package server provides a local stub of the assistant service.

The real service is a separate deployment that runs the chatbot and the
image classifier. This stub speaks the same HTTP API with canned
keyword-matched answers, so the client can be developed and demoed
without the real backend:

  - GET  /api/languages      supported languages and current selection
  - POST /api/chat           chat turn: text or image_response body
  - POST /api/analyze-image  multipart image upload, classification result
  - GET  /health             liveness check

Responses reproduce the service's envelope exactly: every body carries
"success", chat replies carry "chat_id", and multi-image replies use the
top-level {type: "image_response", images: [{data, caption}]} form.

Start it with:

	ewaste-tui --serve 127.0.0.1:5000
*/
package server
