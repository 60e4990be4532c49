package fifobridge

const (
	dirPrefix        = "protobridge-"
	requestPipeName  = "request.fifo"
	responsePipeName = "response.fifo"

	// pipeMode is owner read/write only.
	pipeMode = 0o600
)

// pipePair is the directory and the two FIFOs inside it.
type pipePair struct {
	dir      string
	request  string
	response string
}
