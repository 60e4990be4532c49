package fifobridge

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

const (
	scriptPattern = "protoc-gen-protobridge-*.sh"

	// scriptMode is owner read and execute only.
	scriptMode = 0o500
)

// shellQuoter escapes the characters that stay special inside double quotes.
var shellQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

// renderScript returns the plugin shim. The request pipe is opened before
// the response pipe, mirroring the worker's open order.
func renderScript(shell, requestPath, responsePath string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "#!%s\n", shell)
	b.WriteString("set -e\n")
	fmt.Fprintf(&b, "exec 4> \"%s\"\n", shellQuoter.Replace(requestPath))
	fmt.Fprintf(&b, "exec 5< \"%s\"\n", shellQuoter.Replace(responsePath))
	b.WriteString("cat /dev/stdin >&4\n")
	b.WriteString("exec 4>&-\n")
	b.WriteString("cat <&5\n")
	b.WriteString("exec 5<&-\n")
	return b.Bytes()
}

// writeScript writes the shim for pair into dir and restricts it to
// scriptMode before returning its path.
func writeScript(dir, shell string, pair *pipePair) (path string, err error) {
	path, err = createScript(dir, renderScript(shell, pair.request, pair.response))
	if err != nil {
		return "", err
	}
	if err := os.Chmod(path, scriptMode); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: script %s: %w", ErrCreate, path, err)
	}
	return path, nil
}

// createScript writes body to a new temp file in dir. Forks are held off
// while the file is open for writing: a child inheriting that descriptor
// would make exec of the script fail with ETXTBSY until the child execs.
func createScript(dir string, body []byte) (path string, err error) {
	release := holdForks()
	defer release()

	f, err := os.CreateTemp(dir, scriptPattern)
	if err != nil {
		return "", fmt.Errorf("%w: script: %w", ErrCreate, err)
	}
	path = f.Name()

	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: script %s: %w", ErrCreate, path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: script %s: %w", ErrCreate, path, err)
	}
	return path, nil
}
