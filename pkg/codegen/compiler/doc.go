// Package compiler plays protoc's side of the plugin protocol without
// protoc.
//
// BuildRequest compiles .proto sources with protocompile and produces the
// CodeGeneratorRequest protoc would send. Execute runs a plugin executable
// with it, and WriteFiles writes the response to disk. RunLocal chains the
// three through a fifobridge script.
package compiler
