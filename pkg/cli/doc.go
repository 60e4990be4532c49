// Package cli implements the protobridge command-line interface.
//
// # Commands
//
// compile: run registered in-process plugins over proto files, either
// through protoc or with the built-in compiler (--local)
//
//	protobridge compile \
//		--proto_path ./proto \
//		--out ./gen \
//		--plugin inventory \
//		--opt prefix=docs \
//		acme/orders/order.proto
//
// serve: prepare a single bridge and print the script path to pass to a
// compiler started separately
//
//	protobridge serve --timeout 1m inventory
//
// plugins: list registered plugins
//
//	protobridge plugins --json
//
// # Configuration
//
// Settings come from PROTOBRIDGE_* environment variables (see package
// config). Flags override them for a single run.
package cli
