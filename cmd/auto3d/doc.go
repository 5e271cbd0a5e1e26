// Package main hosts the auto3d CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the state document,
// the attempt journal, and the catalog and generation clients into the poll
// loop (`auto3d run`) and its single-product variants (`process`,
// `attach-file`). Read-only commands (`state`, `history`, `doctor`) render
// the same stores for operators without taking the writer lock.
//
// Keep this package lean: behaviour belongs in the internal packages; commands
// here only resolve configuration and format output.
package main
