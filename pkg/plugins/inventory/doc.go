// Package inventory is a built-in protoc generator that writes a YAML
// summary of each input file: package, imports, messages with their
// fields, enums and services.
//
// It accepts one parameter, prefix=<dir>, which places every output under
// a subdirectory of the output root.
package inventory
