package assets

import _ "embed"

// SystemInstruction is the system prompt prepended to every conversation.
//
//go:embed system_instruction.md
var SystemInstruction string

// ChatPage is a minimal browser client for the chat endpoint.
//
//go:embed chat.html
var ChatPage []byte
