package blocks

// Error is a transient block runtime fault. Tag is a short operation name
// ("state", "classify", "render") used in logs; the bar keeps scheduling a
// block that returns these.
type Error struct {
	Block string
	Tag   string
	Err   error
}

func (e *Error) Error() string {
	return e.Block + ": " + e.Tag + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
