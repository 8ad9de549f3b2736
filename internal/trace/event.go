package trace

// Event is a sealed interface over the raw trace event variants.
// Only RunEnd, Input, Frame and Unrecognized implement it.
type Event interface {
	event() // Sealed - only these types implement it
}

// RunEnd is the terminal summary event of a run. A producer may emit a
// provisional run_end followed by a final one; the last RunEnd in file
// order is authoritative.
type RunEnd struct {
	Status        string
	Outcome       string
	Frames        int
	ChecksumChain string
	OutputSHA256  string
}

func (RunEnd) event() {}

// Input is a delivered input event. Only resize inputs are interpreted
// by the signature extractor; other input types pass through untouched.
type Input struct {
	InputType string
	Cols      int
	Rows      int
	HashKey   string
}

func (Input) event() {}

// Frame is a rendered frame event.
type Frame struct {
	Cols      int
	Rows      int
	FrameHash string
	HashKey   string
}

func (Frame) event() {}

// Unrecognized carries an event with an unknown (or absent) type field
// through the stream inertly. The original payload is preserved so
// tooling that cares can still inspect it.
type Unrecognized struct {
	Type    string
	Payload map[string]any
}

func (Unrecognized) event() {}

// eventFromObject projects one decoded JSONL object into its typed
// variant. All scalar reads go through the coercion accessors.
func eventFromObject(obj map[string]any) Event {
	switch asString(obj["type"]) {
	case "run_end":
		return RunEnd{
			Status:        asString(obj["status"]),
			Outcome:       asString(obj["outcome"]),
			Frames:        asInt(obj["frames"]),
			ChecksumChain: asString(obj["checksum_chain"]),
			OutputSHA256:  asString(obj["output_sha256"]),
		}
	case "input":
		return Input{
			InputType: asString(obj["input_type"]),
			Cols:      asInt(obj["cols"]),
			Rows:      asInt(obj["rows"]),
			HashKey:   asString(obj["hash_key"]),
		}
	case "frame":
		return Frame{
			Cols:      asInt(obj["cols"]),
			Rows:      asInt(obj["rows"]),
			FrameHash: asString(obj["frame_hash"]),
			HashKey:   asString(obj["hash_key"]),
		}
	default:
		return Unrecognized{
			Type:    asString(obj["type"]),
			Payload: obj,
		}
	}
}
