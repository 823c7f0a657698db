// Package kennel is the root of the kennel module, a small agent framework
// with prompt transcript recording built in. There is no code at the root;
// everything lives in subpackages:
//
//   - llm and its provider subpackages (deepseek, openai, anthropic) for chat
//     completion clients
//   - agent/core for the reasoning-action loop, middleware, and handoffs
//   - dog for the pet state machine and its behavior tools
//   - promptdump for byte-deterministic transcripts of every model exchange
//   - memory, tools, observability, and server/http for the supporting pieces
//
// A typical import set:
//
//	import (
//	  "github.com/kennelworks/kennel/llm/deepseek"
//	  "github.com/kennelworks/kennel/agent/core"
//	  "github.com/kennelworks/kennel/promptdump"
//	)
package kennel
