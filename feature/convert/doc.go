// Package convert turns game resources between their markup (.lsx) and
// JSON-like (.lsj) forms by running an external conversion tool once per file.
//
// The tool is a black box invoked as:
//
//	<tool> --action convert-resource --game <profile> --source <src> --destination <dst> --loglevel error
//
// Exit code zero is success. The tool's combined output is kept only when a
// conversion fails and is surfaced through ToolError. Package metadata files
// (meta.lsx, meta.lsj) are never converted.
//
// Conversions share the dispatcher with reference patching, so they scan,
// parallelize, report progress and cancel the same way.
package convert
