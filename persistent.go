package swapkeep

// Marshaller is anything that can be represented in binary. Marshal may
// validate the data first, so errors should be expected.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent is a model that can be written to and loaded back from the
// store. Unmarshal almost always requires a pointer receiver.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Validater is any struct that can be validated.
type Validater interface {
	Validate() error
}
