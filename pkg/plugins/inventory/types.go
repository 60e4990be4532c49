package inventory

// FileInventory describes the declarations of one .proto file.
type FileInventory struct {
	File     string    `yaml:"file"`
	Package  string    `yaml:"package,omitempty"`
	Syntax   string    `yaml:"syntax"`
	Imports  []string  `yaml:"imports,omitempty"`
	Messages []Message `yaml:"messages,omitempty"`
	Enums    []Enum    `yaml:"enums,omitempty"`
	Services []Service `yaml:"services,omitempty"`
}

// Message is a message type. Nested messages are listed separately under
// their dotted name.
type Message struct {
	Name   string  `yaml:"name"`
	Fields []Field `yaml:"fields,omitempty"`
}

// Field is a single message field
type Field struct {
	Name        string `yaml:"name"`
	Number      int32  `yaml:"number"`
	Type        string `yaml:"type"`
	Cardinality string `yaml:"cardinality"`
	Oneof       string `yaml:"oneof,omitempty"`
}

// Enum is an enum type and its values in declaration order
type Enum struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// Service is a service and its methods
type Service struct {
	Name    string   `yaml:"name"`
	Methods []Method `yaml:"methods,omitempty"`
}

// Method is a single RPC
type Method struct {
	Name            string `yaml:"name"`
	Input           string `yaml:"input"`
	Output          string `yaml:"output"`
	ClientStreaming bool   `yaml:"client_streaming,omitempty"`
	ServerStreaming bool   `yaml:"server_streaming,omitempty"`
}
