// Package protoc runs the protoc compiler with in-process generators
// attached as plugins.
//
// Each PluginInvocation gets its own fifobridge, whose script is passed to
// protoc as --plugin=protoc-gen-<name>=<script>. After protoc exits the
// workers are joined and every bridge is cleaned up.
package protoc
